// Package install tracks whether the dashboard has been added to the
// desktop launcher and drives the one-click install flow.
package install

import (
	"context"
	"fmt"
)

// FlagKey is the persisted setting holding the installed flag.
const FlagKey = "installed"

// FlagStore persists boolean settings.
type FlagStore interface {
	GetFlag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string, value bool) error
}

// Action tells the caller what to show after an install click.
type Action int

const (
	// ActionNone means nothing needs to be shown.
	ActionNone Action = iota
	// ActionPrompt means the deferred platform prompt should be shown.
	ActionPrompt
	// ActionGuide means no prompt is available and the manual guide is shown.
	ActionGuide
)

// State is the install flow state. The installed flag is read once when
// the state is loaded and written only when an install completes.
type State struct {
	store      FlagStore
	installed  bool
	available  bool
	installing bool
	showGuide  bool
}

// Load reads the persisted installed flag.
func Load(ctx context.Context, store FlagStore) (*State, error) {
	installed, err := store.GetFlag(ctx, FlagKey)
	if err != nil {
		return nil, fmt.Errorf("loading install state: %w", err)
	}
	return &State{store: store, installed: installed}, nil
}

func (s *State) Installed() bool  { return s.installed }
func (s *State) Available() bool  { return s.available }
func (s *State) Installing() bool { return s.installing }
func (s *State) ShowGuide() bool  { return s.showGuide }

// CanInstall reports whether the install affordance should be offered.
func (s *State) CanInstall() bool {
	return !s.installed && !s.installing
}

// PromptAvailable captures the platform's install prompt for later use.
func (s *State) PromptAvailable() {
	if s.installed {
		return
	}
	s.available = true
	s.showGuide = false
}

// Click starts an install at the user's request.
func (s *State) Click() Action {
	if !s.CanInstall() {
		return ActionNone
	}
	if s.available {
		s.installing = true
		return ActionPrompt
	}
	s.showGuide = true
	return ActionGuide
}

// Outcome records the user's answer to the install prompt. A rejected
// prompt is not offered again automatically.
func (s *State) Outcome(ctx context.Context, accepted bool) error {
	if !accepted {
		s.installing = false
		s.available = false
		return nil
	}
	return s.MarkInstalled(ctx)
}

// MarkInstalled handles the platform's installed signal.
func (s *State) MarkInstalled(ctx context.Context) error {
	s.installing = false
	s.available = false
	s.showGuide = false
	if s.installed {
		return nil
	}
	s.installed = true
	if err := s.store.SetFlag(ctx, FlagKey, true); err != nil {
		return fmt.Errorf("saving install state: %w", err)
	}
	return nil
}

// HideGuide closes the manual install guide.
func (s *State) HideGuide() {
	s.showGuide = false
}
