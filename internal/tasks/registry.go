package tasks

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Notification names the RabbitMQ destination for a task's terminal
// notifications. The queue should be specific to the task.
type Notification struct {
	Queue      string `toml:"queue" json:"queue"`
	Exchange   string `toml:"exchange" json:"exchange"`
	RoutingKey string `toml:"routing_key" json:"routing_key"`
}

// Descriptor defines one task submittable through the proxy. Cmd is the
// executable run on the cluster; default params precede the caller's params.
type Descriptor struct {
	Cmd           string       `toml:"cmd" json:"cmd"`
	DefaultParams []string     `toml:"default_params" json:"default_params"`
	Description   string       `toml:"description" json:"description"`
	Notification  Notification `toml:"notification" json:"notification"`
}

// Registry is the closed set of tasks accepted for submission. It is built
// once at startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	tasks map[string]Descriptor
}

type definitionsFile struct {
	Tasks map[string]Descriptor `toml:"tasks"`
}

// NewRegistry returns the registry seeded with the built-in tasks.
func NewRegistry() *Registry {
	return &Registry{
		tasks: map[string]Descriptor{
			"echo_hello_world": {
				Cmd:           "echo",
				DefaultParams: []string{},
				Description:   "Prints a generic hello world! message",
				Notification: Notification{
					Queue:      "hello_world_queue",
					Exchange:   "",
					RoutingKey: "hello_world",
				},
			},
		},
	}
}

// LoadFile merges task definitions from a TOML file into the registry.
// File entries override built-ins of the same name.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read task definitions %s: %w", path, err)
	}
	var defs definitionsFile
	if err := toml.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("failed to parse task definitions %s: %w", path, err)
	}
	for name, desc := range defs.Tasks {
		if desc.Cmd == "" {
			return fmt.Errorf("task %s in %s has no cmd", name, path)
		}
		r.tasks[name] = desc
	}
	return nil
}

// Lookup returns the descriptor for a registered task name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	desc, ok := r.tasks[name]
	return desc, ok
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the registry contents.
func (r *Registry) All() map[string]Descriptor {
	all := make(map[string]Descriptor, len(r.tasks))
	for name, desc := range r.tasks {
		all[name] = desc
	}
	return all
}

// Command renders the task command line: executable, default params, then the
// caller's params, space-joined. Unregistered names are an error.
func (r *Registry) Command(name string, params []string) (string, error) {
	desc, ok := r.tasks[name]
	if !ok {
		return "", fmt.Errorf("task %s is not registered", name)
	}
	parts := make([]string, 0, 1+len(desc.DefaultParams)+len(params))
	parts = append(parts, desc.Cmd)
	parts = append(parts, desc.DefaultParams...)
	parts = append(parts, params...)
	return strings.Join(parts, " "), nil
}
