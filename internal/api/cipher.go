package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/logging"
	"github.com/RowanDark/playfair/internal/playfair"
)

// CipherOperationRequest represents a request to execute a cipher operation
type CipherOperationRequest struct {
	Operation string         `json:"operation"`
	Input     string         `json:"input"`
	Config    map[string]any `json:"config,omitempty"`
}

// CipherOperationResponse represents the result of a cipher operation
type CipherOperationResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// CipherPipelineRequest represents a request to execute a pipeline of operations
type CipherPipelineRequest struct {
	Input      string                   `json:"input"`
	Operations []cipher.OperationConfig `json:"operations"`
}

// CipherDetectRequest represents a request to score input as Playfair ciphertext
type CipherDetectRequest struct {
	Input string `json:"input"`
}

// CipherDetectResponse represents the detection result
type CipherDetectResponse struct {
	Detections []cipher.DetectionResult `json:"detections"`
}

// CipherGridRequest asks for the key square of a keyword, or validates a
// key square given row by row in Grid
type CipherGridRequest struct {
	Keyword string   `json:"keyword"`
	Grid    []string `json:"grid,omitempty"`
	Filler  string   `json:"filler,omitempty"`
}

// CipherGridResponse carries the key square row by row
type CipherGridResponse struct {
	Rows   []string `json:"rows"`
	Filler string   `json:"filler"`
}

// OperationInfo describes a registered operation
type OperationInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
}

// RecipeSaveRequest represents a request to save a recipe
type RecipeSaveRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Tags        []string                 `json:"tags,omitempty"`
	Operations  []cipher.OperationConfig `json:"operations"`
	Reversible  bool                     `json:"reversible,omitempty"`
}

// RecipeRunRequest runs a stored recipe; Parameters override every step
type RecipeRunRequest struct {
	Input      string         `json:"input"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// RecipeListResponse represents the list of recipes
type RecipeListResponse struct {
	Recipes []cipher.Recipe `json:"recipes"`
}

// statusFor maps operation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, cipher.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, cipher.ErrUnknownOperation):
		return http.StatusBadRequest
	case errors.Is(err, playfair.ErrUnknownLetter),
		errors.Is(err, playfair.ErrEmptyMessage),
		errors.Is(err, playfair.ErrInvalidAlphabetSize),
		errors.Is(err, playfair.ErrMalformedGrid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// withDefaults layers params over the server defaults without touching either.
func withDefaults(defaults, params map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(params))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

func eventFor(opType cipher.OperationType) logging.EventType {
	switch opType {
	case cipher.OperationTypeEncrypt:
		return logging.EventEncrypt
	case cipher.OperationTypeDecrypt:
		return logging.EventDecrypt
	default:
		return logging.EventPipeline
	}
}

// handleCipherExecute handles execution of a single cipher operation
func (s *Server) handleCipherExecute(w http.ResponseWriter, r *http.Request) {
	var req CipherOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Operation == "" {
		s.writeError(w, http.StatusBadRequest, "operation field is required")
		return
	}

	op, exists := s.registry.Get(req.Operation)
	if !exists {
		s.writeJSON(w, http.StatusBadRequest, CipherOperationResponse{
			Error: "unknown operation: " + req.Operation,
		})
		return
	}

	params := withDefaults(s.cfg.Defaults, req.Config)
	result, err := op.Execute(r.Context(), []byte(req.Input), params)
	meta := map[string]any{"operation": op.Name(), "keyword": params["keyword"], "input_len": len(req.Input)}
	if err != nil {
		s.emit(logging.AuditEvent{EventType: logging.EventOperationFailed, Decision: logging.DecisionDeny, Reason: err.Error(), Metadata: meta})
		s.writeJSON(w, statusFor(err), CipherOperationResponse{Error: err.Error()})
		return
	}
	s.emit(logging.AuditEvent{EventType: eventFor(op.Type()), Decision: logging.DecisionAllow, Metadata: meta})

	s.writeJSON(w, http.StatusOK, CipherOperationResponse{Output: string(result)})
}

// handleCipherPipeline handles execution of a pipeline of operations
func (s *Server) handleCipherPipeline(w http.ResponseWriter, r *http.Request) {
	var req CipherPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Operations) == 0 {
		s.writeError(w, http.StatusBadRequest, "operations field is required and must not be empty")
		return
	}

	steps := make([]cipher.OperationConfig, len(req.Operations))
	names := make([]string, len(req.Operations))
	for i, step := range req.Operations {
		steps[i] = cipher.OperationConfig{Name: step.Name, Parameters: withDefaults(s.cfg.Defaults, step.Parameters)}
		names[i] = step.Name
	}
	pipeline := &cipher.Pipeline{Operations: steps, Registry: s.registry}

	result, err := pipeline.Execute(r.Context(), []byte(req.Input))
	meta := map[string]any{"steps": names, "input_len": len(req.Input)}
	if err != nil {
		s.emit(logging.AuditEvent{EventType: logging.EventOperationFailed, Decision: logging.DecisionDeny, Reason: err.Error(), Metadata: meta})
		s.writeJSON(w, statusFor(err), CipherOperationResponse{Error: err.Error()})
		return
	}
	s.emit(logging.AuditEvent{EventType: logging.EventPipeline, Decision: logging.DecisionAllow, Metadata: meta})

	s.writeJSON(w, http.StatusOK, CipherOperationResponse{Output: string(result)})
}

// handleCipherDetect scores the input as Playfair ciphertext
func (s *Server) handleCipherDetect(w http.ResponseWriter, r *http.Request) {
	var req CipherDetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input field is required")
		return
	}

	detections, err := s.detector.Detect(r.Context(), []byte(req.Input))
	if err != nil {
		s.writeJSON(w, statusFor(err), map[string]any{
			"error":      err.Error(),
			"detections": []cipher.DetectionResult{},
		})
		return
	}

	s.writeJSON(w, http.StatusOK, CipherDetectResponse{Detections: detections})
}

// handleCipherGrid returns the key square for a keyword
func (s *Server) handleCipherGrid(w http.ResponseWriter, r *http.Request) {
	var req CipherGridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var opts []playfair.Option
	if f := strings.TrimSpace(req.Filler); f != "" {
		runes := []rune(strings.ToUpper(f))
		if len(runes) != 1 {
			s.writeError(w, http.StatusBadRequest, "filler must be a single letter")
			return
		}
		opts = append(opts, playfair.WithFiller(runes[0]))
	}

	var (
		c   *playfair.Cipher
		err error
	)
	switch {
	case len(req.Grid) > 0 && req.Keyword != "":
		s.writeError(w, http.StatusBadRequest, "keyword and grid are mutually exclusive")
		return
	case len(req.Grid) > 0:
		var grid playfair.Grid
		if grid, err = playfair.ParseGrid(req.Grid); err == nil {
			c, err = s.ciphers.GetGrid(grid, opts...)
		}
	default:
		c, err = s.ciphers.Get(req.Keyword, opts...)
	}
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, CipherGridResponse{
		Rows:   c.Grid().Rows(),
		Filler: string(c.Filler()),
	})
}

// handleCipherListOperations handles listing all available operations
func (s *Server) handleCipherListOperations(w http.ResponseWriter, r *http.Request) {
	operations := s.registry.List()

	opList := make([]OperationInfo, 0, len(operations))
	for _, op := range operations {
		_, reversible := op.Reverse()
		opList = append(opList, OperationInfo{
			Name:        op.Name(),
			Type:        string(op.Type()),
			Description: op.Description(),
			Reversible:  reversible,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"operations": opList})
}

// handleRecipeSave handles saving a new recipe
func (s *Server) handleRecipeSave(w http.ResponseWriter, r *http.Request) {
	var req RecipeSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	recipe := &cipher.Recipe{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Pipeline: cipher.Pipeline{
			Operations: req.Operations,
			Reversible: req.Reversible,
		},
	}

	if err := s.recipes.SaveRecipe(recipe); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, cipher.ErrRecipeConflict):
			status = http.StatusConflict
		case errors.Is(err, cipher.ErrUnknownOperation) || strings.TrimSpace(req.Name) == "":
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.emit(logging.AuditEvent{
		EventType: logging.EventRecipeSaved,
		Decision:  logging.DecisionInfo,
		Metadata:  map[string]any{"recipe": recipe.Name, "steps": len(recipe.Pipeline.Operations)},
	})

	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}

// handleRecipeList handles listing all recipes
func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	var recipes []*cipher.Recipe
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		recipes = s.recipes.SearchRecipes(q)
	} else {
		recipes = s.recipes.ListRecipes()
	}

	recipeList := make([]cipher.Recipe, len(recipes))
	for i, rec := range recipes {
		recipeList[i] = *rec
	}

	s.writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: recipeList})
}

// handleRecipeLoad handles loading a specific recipe
func (s *Server) handleRecipeLoad(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	recipe, exists := s.recipes.GetRecipe(name)
	if !exists {
		s.writeError(w, http.StatusNotFound, "recipe not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"recipe": *recipe})
}

// handleRecipeDelete handles deleting a recipe
func (s *Server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.recipes.DeleteRecipe(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cipher.ErrRecipeNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.emit(logging.AuditEvent{
		EventType: logging.EventRecipeDeleted,
		Decision:  logging.DecisionInfo,
		Metadata:  map[string]any{"recipe": name},
	})

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleRecipeRun runs a stored or built-in recipe
func (s *Server) handleRecipeRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req RecipeRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := s.recipes.RunRecipe(r.Context(), name, []byte(req.Input), req.Parameters)
	meta := map[string]any{"recipe": name, "keyword": req.Parameters["keyword"], "input_len": len(req.Input)}
	if err != nil {
		s.emit(logging.AuditEvent{EventType: logging.EventOperationFailed, Decision: logging.DecisionDeny, Reason: err.Error(), Metadata: meta})
		s.writeJSON(w, statusFor(err), CipherOperationResponse{Error: err.Error()})
		return
	}
	s.emit(logging.AuditEvent{EventType: logging.EventPipeline, Decision: logging.DecisionAllow, Metadata: meta})

	s.writeJSON(w, http.StatusOK, CipherOperationResponse{Output: string(result)})
}
