package ai

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"excelytics/internal/logging"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// PromptManager loads prompt templates. Templates in PromptsDir override
// the built-in ones of the same name.
type PromptManager struct {
	PromptsDir string
}

// NewPromptManager creates a prompt manager; promptsDir may be blank.
func NewPromptManager(promptsDir string) *PromptManager {
	if promptsDir != "" {
		l := logging.Component("prompts")
		l.Info().Str("dir", promptsDir).Msg("prompt overrides enabled")
	}
	return &PromptManager{PromptsDir: promptsDir}
}

// LoadPrompt loads a prompt template by name
func (pm *PromptManager) LoadPrompt(name string) (string, error) {
	if pm.PromptsDir != "" {
		content, err := os.ReadFile(filepath.Join(pm.PromptsDir, name+".txt"))
		if err == nil {
			return string(content), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
		}
	}

	content, err := defaultPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("prompt template not found: %s", name)
	}
	return string(content), nil
}

// RenderPrompt replaces {PLACEHOLDER} with values. Placeholders are
// replaced in a single pass so values containing braces stay literal.
func (pm *PromptManager) RenderPrompt(name string, replacements map[string]string) (string, error) {
	template, err := pm.LoadPrompt(name)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", replacements[k])
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}
