// cmd/mcp-server/main.go — Standalone HTTP MCP server for calcrules
//
// Exposes the derivative-rule tools as an HTTP endpoint for AI agent
// frameworks.
//
// Usage:
//   go run cmd/mcp-server/main.go -port 8080
//
// Tool call endpoint: POST /tool
// Rule list endpoint: GET  /rules
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/njchilds90/calcrules"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	flag.Parse()

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("calcrules MCP server listening on %s", addr)
	log.Printf("  POST /tool   — execute a tool call")
	log.Printf("  GET  /rules  — derivative rule names (%s)", strings.Join(calcrules.AllowedRules(), ", "))
	log.Printf("  GET  /schema — tool schema for agent registration")
	log.Printf("  GET  /health — health check")

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/tool", handleTool)
	mux.HandleFunc("/rules", handleRules)
	mux.HandleFunc("/schema", handleSchema)
	mux.HandleFunc("/health", handleHealth)
	return mux
}

// handleTool decodes one tool call. Bad rule names are rejected here
// so agents see the allowed list without a round trip through the
// dispatcher.
func handleTool(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic in /tool: %v\n%s", rec, string(debug.Stack()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req calcrules.ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// Ensure there's no trailing junk.
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}

	if req.Tool == "apply_rule" {
		if name, ok := req.Params["rule"].(string); ok && name != "" && !ruleAllowed(name) {
			writeJSON(w, http.StatusBadRequest, calcrules.ToolResponse{
				Error: (&calcrules.UnknownRuleError{Name: name}).Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, calcrules.HandleToolCall(req))
}

// handleRules lists the rule names apply_rule accepts.
func handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": calcrules.AllowedRules(),
	})
}

// handleSchema returns the tool schema for agent registration.
func handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, calcrules.MCPToolSpec())
}

// handleHealth is the liveness check.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func ruleAllowed(name string) bool {
	for _, r := range calcrules.AllowedRules() {
		if r == name {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
