package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/tracker"
)

// Scenario is a scripted browsing session fed through a tracker by replay.
//
//	page:
//	  url: https://shop.example.com/
//	  title: Shop
//	fingerprint:
//	  user_agent: Mozilla/5.0 ...
//	  language: en-US
//	batch_interval: 10s
//	steps:
//	  - wait: 120ms
//	    mouse: {x: 10, y: 20}
//	  - click: {x: 10, y: 20, tag: BUTTON, text: Buy}
//	  - navigate: {type: spa_pushstate, url: https://shop.example.com/cart}
//	  - visibility: hidden
//	  - flush: true
type Scenario struct {
	Page          ScenarioPage      `yaml:"page"`
	Fingerprint   map[string]string `yaml:"fingerprint"`
	BatchInterval time.Duration     `yaml:"batch_interval"`
	Steps         []Step            `yaml:"steps"`
}

type ScenarioPage struct {
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	Referrer string `yaml:"referrer"`
}

// Step waits, then performs at most one interaction.
type Step struct {
	Wait       time.Duration `yaml:"wait"`
	Mouse      *Point        `yaml:"mouse"`
	Click      *ClickStep    `yaml:"click"`
	Scroll     *ScrollStep   `yaml:"scroll"`
	Key        *KeyStep      `yaml:"key"`
	Navigate   *NavigateStep `yaml:"navigate"`
	Visibility string        `yaml:"visibility"`
	Flush      bool          `yaml:"flush"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type ClickStep struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Button int     `yaml:"button"`
	Tag    string  `yaml:"tag"`
	ID     string  `yaml:"id"`
	Class  string  `yaml:"class"`
	Text   string  `yaml:"text"`
}

type ScrollStep struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	ViewportWidth  int     `yaml:"viewport_width"`
	ViewportHeight int     `yaml:"viewport_height"`
	DocumentWidth  int     `yaml:"document_width"`
	DocumentHeight int     `yaml:"document_height"`
}

type KeyStep struct {
	Ctrl     bool `yaml:"ctrl"`
	Shift    bool `yaml:"shift"`
	Alt      bool `yaml:"alt"`
	Meta     bool `yaml:"meta"`
	Location int  `yaml:"location"`
}

type NavigateStep struct {
	Type  telemetry.NavigationType `yaml:"type"`
	URL   string                   `yaml:"url"`
	Title string                   `yaml:"title"`
}

// LoadScenario decodes and validates a YAML scenario. Unknown keys are
// rejected.
func LoadScenario(r io.Reader) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return sc, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return sc, errors.Join(ErrInvalidScenario, err)
	}
	return sc, sc.validate()
}

func (sc Scenario) validate() error {
	if sc.Page.URL == "" {
		return fmt.Errorf("%w: page.url is required", ErrInvalidScenario)
	}
	if sc.BatchInterval < 0 {
		return fmt.Errorf("%w: batch_interval must not be negative", ErrInvalidScenario)
	}
	for i, st := range sc.Steps {
		if st.Wait < 0 {
			return fmt.Errorf("%w: step %d: wait must not be negative", ErrInvalidScenario, i)
		}
		if n := st.actions(); n > 1 {
			return fmt.Errorf("%w: step %d: %d actions, want at most one", ErrInvalidScenario, i, n)
		}
		switch st.Visibility {
		case "", "hidden", "visible":
		default:
			return fmt.Errorf("%w: step %d: visibility %q", ErrInvalidScenario, i, st.Visibility)
		}
		if st.Navigate != nil && st.Navigate.URL == "" {
			return fmt.Errorf("%w: step %d: navigate.url is required", ErrInvalidScenario, i)
		}
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Mouse != nil,
		st.Click != nil,
		st.Scroll != nil,
		st.Key != nil,
		st.Navigate != nil,
		st.Visibility != "",
		st.Flush,
	} {
		if set {
			n++
		}
	}
	return n
}

func (sc Scenario) source() tracker.StaticSource {
	src := make(tracker.StaticSource, len(sc.Fingerprint))
	for k, v := range sc.Fingerprint {
		src[tracker.Attribute(k)] = v
	}
	return src
}

// apply performs the step's interaction on t.
func (st Step) apply(t *tracker.Tracker) {
	switch {
	case st.Mouse != nil:
		t.MouseMove(st.Mouse.X, st.Mouse.Y)
	case st.Click != nil:
		t.Click(tracker.ClickInput{
			X:      st.Click.X,
			Y:      st.Click.Y,
			Button: st.Click.Button,
			Tag:    st.Click.Tag,
			ID:     st.Click.ID,
			Class:  st.Click.Class,
			Text:   st.Click.Text,
		})
	case st.Scroll != nil:
		t.Scroll(tracker.ScrollInput{
			ScrollX:        st.Scroll.X,
			ScrollY:        st.Scroll.Y,
			ViewportWidth:  st.Scroll.ViewportWidth,
			ViewportHeight: st.Scroll.ViewportHeight,
			DocumentWidth:  st.Scroll.DocumentWidth,
			DocumentHeight: st.Scroll.DocumentHeight,
		})
	case st.Key != nil:
		t.KeyDown(tracker.KeyInput{
			Ctrl:     st.Key.Ctrl,
			Shift:    st.Key.Shift,
			Alt:      st.Key.Alt,
			Meta:     st.Key.Meta,
			Location: st.Key.Location,
		})
	case st.Navigate != nil:
		t.Navigate(st.Navigate.Type, st.Navigate.URL, st.Navigate.Title)
	case st.Visibility != "":
		t.VisibilityChange(st.Visibility == "visible")
	case st.Flush:
		t.Flush()
	}
}
