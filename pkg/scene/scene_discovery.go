package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownScene is returned by Create for names that are neither built-in nor a scene file
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, accepted by Create
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath,omitempty"`
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const (
	builtinGroup  = "Built-in Scenes"
	fileGroup     = "Scene Files"
	filePrefix    = "file:"
	sceneFileGlob = "*.json"
)

type builtinScene struct {
	info   SceneInfo
	create func() *Scene
}

var builtinScenes = []builtinScene{
	{
		info:   SceneInfo{ID: "default", DisplayName: "Default Scene", Description: "Diffuse, glass and metal spheres on a ground sphere"},
		create: func() *Scene { return NewDefaultScene() },
	},
	{
		info:   SceneInfo{ID: "random-spheres", DisplayName: "Random Spheres", Description: "Grid of small random spheres around three large ones"},
		create: func() *Scene { return NewRandomSpheresScene(DefaultRandomSpheresSeed) },
	},
	{
		info:   SceneInfo{ID: "single-sphere", DisplayName: "Single Sphere", Description: "One grey diffuse sphere under the sky"},
		create: func() *Scene { return NewSingleSphereScene() },
	},
	{
		info:   SceneInfo{ID: "glass", DisplayName: "Glass Ball", Description: "Glass sphere in front of a diffuse and a mirror sphere"},
		create: func() *Scene { return NewGlassScene() },
	},
}

// SceneDirs are searched in order for scene files, relative to the working directory
var SceneDirs = []string{"scenes", "../scenes"}

// Create returns a new scene by built-in name, by "file:<id>" from the scenes directory,
// or by path to a .json file
func Create(name string) (*Scene, error) {
	for _, b := range builtinScenes {
		if b.info.ID == name {
			return b.create(), nil
		}
	}

	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return Load(name)
	}

	if id, ok := strings.CutPrefix(name, filePrefix); ok {
		scenes, err := ListFileScenes()
		if err != nil {
			return nil, err
		}
		for _, info := range scenes {
			if info.ID == filePrefix+id {
				return Load(info.FilePath)
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// BuiltinNames returns the IDs of the built-in scenes in registry order
func BuiltinNames() []string {
	names := make([]string, len(builtinScenes))
	for i, b := range builtinScenes {
		names[i] = b.info.ID
	}
	return names
}

// ListFileScenes scans the scenes directory and returns the JSON scenes found there
func ListFileScenes() ([]SceneInfo, error) {
	var scenesDir string
	for _, path := range SceneDirs {
		if stat, err := os.Stat(path); err == nil && stat.IsDir() {
			scenesDir = path
			break
		}
	}

	if scenesDir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(scenesDir, sceneFileGlob))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		scenes = append(scenes, fileSceneInfo(filePath))
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// fileSceneInfo builds a SceneInfo from the file name, preferring the name and
// description stored in the file when it can be read
func fileSceneInfo(filePath string) SceneInfo {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	info := SceneInfo{
		ID:          filePrefix + base,
		DisplayName: titleCase(base),
		Group:       fileGroup,
		Type:        "json",
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info
	}
	var header struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return info
	}
	if header.Name != "" {
		info.DisplayName = titleCase(header.Name)
	}
	info.Description = header.Description
	return info
}

// List returns both built-in and file scenes, grouped by category
func List() (ScenesResponse, error) {
	var response ScenesResponse

	builtins := make([]SceneInfo, len(builtinScenes))
	for i, b := range builtinScenes {
		builtins[i] = b.info
		builtins[i].Group = builtinGroup
		builtins[i].Type = "builtin"
	}
	response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: builtins})

	fileScenes, err := ListFileScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}
	if len(fileScenes) > 0 {
		response.Groups = append(response.Groups, SceneGroup{Name: fileGroup, Scenes: fileScenes})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "three-spheres" -> "Three Spheres"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
