package ai

import (
	"fmt"
	"net/url"
	"strings"
)

const pollinationsBase = "https://image.pollinations.ai/prompt"

// SceneImageURL construye la URL de generación de imagen para una escena.
// No hace ninguna llamada: pollinations genera la imagen al resolver la URL.
func SceneImageURL(prompt string) string {
	encoded := url.PathEscape(strings.TrimSpace(prompt))
	return fmt.Sprintf("%s/%s?width=1024&height=1024&nologo=true", pollinationsBase, encoded)
}
