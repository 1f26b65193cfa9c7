// Package risk holds the breeding-site risk levels, the mocked image analyzer
// and the advice shown for each level.
package risk

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Level is a breeding-site risk level. The zero value means no analysis.
type Level string

const (
	LevelNone   Level = ""
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Levels lists the analyzable levels from most to least severe.
var Levels = []Level{LevelHigh, LevelMedium, LevelLow}

// ParseLevel accepts "high", "medium" or "low" in any case.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LevelHigh, LevelMedium, LevelLow:
		return l, nil
	default:
		return LevelNone, fmt.Errorf("unknown risk level %q", s)
	}
}

// ErrNotAnImage is returned by ValidateImage for non-image content.
var ErrNotAnImage = errors.New("upload is not an image")

// Image is an uploaded photo.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// ValidateImage sniffs data and returns an Image when it is image/* content.
func ValidateImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%s: %w", name, ErrNotAnImage)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Image{}, fmt.Errorf("%s is %s: %w", name, contentType, ErrNotAnImage)
	}

	return Image{Name: name, ContentType: contentType, Data: data}, nil
}

// Result is the outcome of analyzing one image.
type Result struct {
	Level          Level    `json:"risk_level"`
	Confidence     int      `json:"confidence"`
	DetectedIssues []string `json:"detected_issues"`
}

// Analyzer classifies breeding-site photos.
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (*Result, error)
}

var issuesByLevel = map[Level][]string{
	LevelHigh: {
		"Stagnant water detected",
		"Open container identified",
		"Multiple potential larvae sites",
		"Near residential area",
	},
	LevelMedium: {
		"Small water accumulation",
		"Partially covered container",
		"Moderate risk environment",
	},
	LevelLow: {
		"Minimal water presence",
		"Well-maintained area",
	},
}

// IssuesFor returns the issues reported for level.
func IssuesFor(level Level) []string {
	return append([]string(nil), issuesByLevel[level]...)
}

const (
	defaultMockDelay = 2500 * time.Millisecond
	minConfidence    = 85
	confidenceSpread = 15
)

// MockAnalyzerConfig configures a MockAnalyzer.
type MockAnalyzerConfig struct {
	// Delay simulates model latency. Zero uses 2.5s; negative disables it.
	Delay time.Duration

	// Rand picks the level and confidence. Nil uses a time seeded source.
	Rand *rand.Rand
}

// MockAnalyzer returns a random level with its issue list after a fixed
// delay. It does not look at the image content.
type MockAnalyzer struct {
	delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockAnalyzer returns a MockAnalyzer.
func NewMockAnalyzer(config MockAnalyzerConfig) *MockAnalyzer {
	delay := config.Delay
	if delay == 0 {
		delay = defaultMockDelay
	}

	rnd := config.Rand
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &MockAnalyzer{delay: delay, rnd: rnd}
}

// Analyze implements Analyzer.
func (m *MockAnalyzer) Analyze(ctx context.Context, _ Image) (*Result, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	level := Levels[m.rnd.IntN(len(Levels))]
	confidence := m.rnd.IntN(confidenceSpread) + minConfidence
	m.mu.Unlock()

	return &Result{
		Level:          level,
		Confidence:     confidence,
		DetectedIssues: IssuesFor(level),
	}, nil
}
