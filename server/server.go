package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/docqa/qalocal/internal/models"
	"github.com/docqa/qalocal/internal/types"
	"github.com/docqa/qalocal/pkg/retriever"
)

// MaxQuestionLen bounds the accepted question length in runes.
const MaxQuestionLen = 500

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the frame exchanged over the /ws endpoint.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Retriever finds the chunks most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedDocument, error)
}

// Answerer generates a grounded answer from retrieved chunks.
type Answerer interface {
	Answer(ctx context.Context, question string, docs []models.RetrievedDocument) (*models.Answer, error)
}

type Config struct {
	Model      string
	Collection string
}

// Server exposes the question-answering pipeline over HTTP.
type Server struct {
	config    Config
	retriever Retriever
	answerer  Answerer
	store     types.VectorStore
}

func New(config Config, ret Retriever, answerer Answerer, store types.VectorStore) *Server {
	return &Server{
		config:    config,
		retriever: ret,
		answerer:  answerer,
		store:     store,
	}
}

// Handler returns the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/qa", s.handleQA)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/collections", s.handleCollections)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

type qaRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	questionLen := utf8.RuneCountInString(req.Question)
	if questionLen == 0 {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	if questionLen > MaxQuestionLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("question exceeds %d characters", MaxQuestionLen))
		return
	}

	k := 0
	if req.TopK != nil {
		if *req.TopK < retriever.MinTopK || *req.TopK > retriever.MaxTopK {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("top_k must be between %d and %d", retriever.MinTopK, retriever.MaxTopK))
			return
		}
		k = *req.TopK
	}

	docs, err := s.retriever.Retrieve(r.Context(), req.Question, k)
	if err != nil {
		log.Printf("Retrieval failed: %v", err)
		writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question, docs)
	if err != nil {
		log.Printf("Answer generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "answer generation failed")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  s.config.Model,
	})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		log.Printf("Count query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collection": s.config.Collection,
		"documents":  count,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleWSQuestion(conn, msg)
	}
}

func (s *Server) handleWSQuestion(conn *websocket.Conn, msg Message) {
	question := msg.Content
	if utf8.RuneCountInString(question) == 0 || utf8.RuneCountInString(question) > MaxQuestionLen {
		s.sendMessage(conn, "error", fmt.Sprintf("question must be between 1 and %d characters", MaxQuestionLen))
		return
	}

	ctx := context.Background()

	s.sendMessage(conn, "status", "Searching documents...")
	docs, err := s.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Retrieval failed: %v", err))
		return
	}

	s.sendMessage(conn, "status", "Generating answer...")
	answer, err := s.answerer.Answer(ctx, question, docs)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Answer generation failed: %v", err))
		return
	}

	out := Message{Type: "response", Content: answer.Text, Data: answer.Sources}
	if err := conn.WriteJSON(out); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType, content string) {
	if err := conn.WriteJSON(Message{Type: msgType, Content: content}); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
