package processor

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/docqa/qalocal/internal/models"
)

// idVersion tags the serialization fed to the hash. Bump it whenever the
// layout below changes so ids from older runs cannot collide with new
// ones.
const idVersion = "v1"

// ChunkID derives a stable identifier for a chunk at the given ordinal
// position within an ingestion run. The id hashes the chunk text together
// with its metadata serialized in sorted key order, so identical input
// reproduces identical ids and re-ingestion upserts instead of
// duplicating. xxhash is not collision-proof, but ids are only compared
// for upsert equality inside the store.
func ChunkID(chunk models.Chunk, ordinal int) string {
	keys := make([]string, 0, len(chunk.Metadata))
	for k := range chunk.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := xxhash.New()
	h.WriteString(idVersion)
	h.WriteString("|")
	h.WriteString(chunk.Text)
	for _, k := range keys {
		h.WriteString("|")
		h.WriteString(k)
		h.WriteString("=")
		h.WriteString(chunk.Metadata[k])
	}

	return fmt.Sprintf("chunk_%016x_%d", h.Sum64(), ordinal)
}
