package cache

import "crypto/sha256"

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	// FrameKey identifies a resolved frame of a scene.
	FrameKey(sceneHash string, opts FrameKeyOpts) string
	// ArtifactKey identifies a rendered output of a frame.
	ArtifactKey(frameHash string, opts ArtifactKeyOpts) string
}

// FrameKeyOpts are the inputs besides the scene that change a frame.
type FrameKeyOpts struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Rem     float64 `json:"rem"`
	Measure string  `json:"measure,omitempty"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Labels   bool   `json:"labels,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FrameKey returns "frame:<sha256>".
func (DefaultKeyer) FrameKey(sceneHash string, opts FrameKeyOpts) string {
	return "frame:" + digest(sha256.New(), sceneHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(frameHash string, opts ArtifactKeyOpts) string {
	return "artifact:" + digest(sha256.New(), frameHash, opts)
}
