package process

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mparks/geode/internal/model"
)

var helloDescriptor = &model.ProcessDescriptor{
	ID:                "hello-world",
	Title:             "Hello World",
	Description:       "Echoes a greeting back to the caller.",
	Version:           "1.0.0",
	JobControlOptions: []string{model.ControlSync},
	Keywords:          []string{"hello", "echo", "example"},
	Inputs: map[string]model.Input{
		"name": {
			Title:       "Name",
			Description: "Name of the person or thing to greet",
			Schema:      model.Schema{Type: model.TypeString},
			MinOccurs:   1,
			MaxOccurs:   1,
		},
		"message": {
			Title:       "Message",
			Description: "Greeting prefix (default: Hello)",
			Schema:      model.Schema{Type: model.TypeString, Default: "Hello"},
			MinOccurs:   0,
			MaxOccurs:   1,
		},
	},
	Outputs: map[string]model.Output{
		"echo": {
			Title:  "Echo",
			Schema: model.Schema{Type: model.TypeObject, ContentMediaType: "application/json"},
		},
	},
	Example: map[string]any{
		"inputs": map[string]any{"name": "World", "message": "Hello"},
	},
}

// HelloWorld is a trivial sync-only process used as a smoke test. It also
// exercises the async-to-sync fallback path, since it does not advertise
// async-execute.
type HelloWorld struct{}

// NewHelloWorld creates the hello-world processor.
func NewHelloWorld() *HelloWorld {
	return &HelloWorld{}
}

func (p *HelloWorld) Describe() *model.ProcessDescriptor {
	return helloDescriptor
}

func (p *HelloWorld) Execute(inputs map[string]any) (string, any, error) {
	name, _ := inputs["name"].(string)
	if strings.TrimSpace(name) == "" {
		return "", nil, errors.New("name must not be empty")
	}

	message, _ := inputs["message"].(string)
	if message == "" {
		message = "Hello"
	}

	result := map[string]any{
		"id":    "echo",
		"value": fmt.Sprintf("%s %s!", message, name),
	}
	return "application/json", result, nil
}
