package cipher

import (
	"context"
	"fmt"
)

// OperationType defines the category of transformation operation
type OperationType string

const (
	OperationTypeEncrypt   OperationType = "encrypt"
	OperationTypeDecrypt   OperationType = "decrypt"
	OperationTypeNormalize OperationType = "normalize"
	OperationTypeFormat    OperationType = "format"
)

// Operation represents a single transformation that can be applied to text
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Execute applies the operation to the input data
	Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error)

	// Reverse returns the inverse operation if available
	Reverse() (Operation, bool)
}

// OperationConfig names an operation in a pipeline together with its parameters
type OperationConfig struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Pipeline is a chain of operations applied in order. A nil Registry means
// the package default registry.
type Pipeline struct {
	Operations []OperationConfig `json:"operations"`
	Reversible bool              `json:"reversible"`
	Registry   *Registry         `json:"-"`
}

func (p *Pipeline) registry() *Registry {
	if p.Registry != nil {
		return p.Registry
	}
	return defaultRegistry
}

// Execute runs the pipeline on the input data
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	return p.ExecuteWith(ctx, input, nil)
}

// ExecuteWith runs the pipeline with overrides merged into every step's
// parameters. Overrides win over the stored parameters, which lets a saved
// recipe omit its keyword.
func (p *Pipeline) ExecuteWith(ctx context.Context, input []byte, overrides map[string]any) ([]byte, error) {
	reg := p.registry()
	result := input

	for i, opConfig := range p.Operations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		op, exists := reg.Get(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("step %d: %w: %s", i, ErrUnknownOperation, opConfig.Name)
		}

		out, err := op.Execute(ctx, result, mergeParams(opConfig.Parameters, overrides))
		if err != nil {
			return nil, fmt.Errorf("operation %s failed at step %d: %w", opConfig.Name, i, err)
		}
		result = out
	}

	return result, nil
}

// Reverse creates a reversed pipeline if all operations are reversible
func (p *Pipeline) Reverse() (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline is not reversible")
	}

	reg := p.registry()
	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
		Registry:   p.Registry,
	}

	for i, opConfig := range p.Operations {
		op, exists := reg.Get(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s is not reversible", opConfig.Name)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: opConfig.Parameters,
		}
	}

	return reversed, nil
}

func mergeParams(base, overrides map[string]any) map[string]any {
	if len(overrides) == 0 {
		return base
	}
	merged := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Recipe represents a named, reusable transformation pipeline
type Recipe struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// DetectionResult describes how likely an input is to be Playfair ciphertext
type DetectionResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
	Operation  string  `json:"operation"` // Suggested operation name to decode
}

// Detector identifies the likely format of input data
type Detector interface {
	Detect(ctx context.Context, input []byte) ([]DetectionResult, error)
	SupportedEncodings() []string
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
