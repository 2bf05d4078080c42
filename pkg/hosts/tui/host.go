// Package tui drives a form session from a terminal. Every edit goes through
// the session, so option lists always reflect the latest constraint cycle.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-dynform/pkg/request"
	"github.com/goliatone/go-dynform/pkg/session"
)

const (
	labelSubmit = "Submit"
	labelQuit   = "Quit"
	labelClear  = "(none)"
)

// Host runs the interactive menu loop over a session.
type Host struct {
	session  *session.Session
	driver   PromptDriver
	logger   *slog.Logger
	pageSize int
}

// New builds a host. The survey driver is used unless WithPromptDriver says
// otherwise.
func New(sess *session.Session, options ...Option) (*Host, error) {
	if sess == nil {
		return nil, ErrNoSession
	}
	h := &Host{
		session:  sess,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		pageSize: 12,
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	if h.driver == nil {
		h.driver = NewSurveyDriver(nil)
	}
	return h, nil
}

// Run shows the menu until the user submits, then returns the submission.
// Quitting or interrupting returns ErrAborted.
func (h *Host) Run(ctx context.Context) (request.Submission, error) {
	for {
		view := h.session.View()

		entries := make([]string, 0, len(view.Fields)+3)
		entries = append(entries, fmt.Sprintf("Collection: %s", collectionTitle(view)))
		for _, f := range view.Fields {
			entries = append(entries, fmt.Sprintf("%s: %s", f.Title, summary(f)))
		}
		submitIdx := len(entries)
		entries = append(entries, labelSubmit, labelQuit)

		idx, err := h.driver.Select(ctx, SelectConfig{
			Message:      "Edit the request",
			Options:      entries,
			DefaultIndex: submitIdx,
			PageSize:     h.pageSize,
		})
		if err != nil {
			return request.Submission{}, err
		}

		switch {
		case idx == 0:
			err = h.chooseCollection(ctx, view)
		case idx > 0 && idx < submitIdx:
			err = h.editField(ctx, view.Fields[idx-1])
		case idx == submitIdx:
			sub := request.NewSubmission(h.session)
			if len(sub.Request) > 0 {
				return sub, nil
			}
			ok, confirmErr := h.driver.Confirm(ctx, ConfirmConfig{Message: "Nothing is selected. Submit an empty request?"})
			if confirmErr != nil {
				return request.Submission{}, confirmErr
			}
			if ok {
				return sub, nil
			}
			continue
		default:
			return request.Submission{}, ErrAborted
		}

		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
			return request.Submission{}, err
		}
		if err != nil {
			h.logger.Warn("edit rejected", "error", err)
			if infoErr := h.driver.Info(ctx, "error: "+err.Error()); infoErr != nil {
				return request.Submission{}, infoErr
			}
		}
	}
}

func (h *Host) chooseCollection(ctx context.Context, view session.View) error {
	titles := make([]string, 0, len(view.Collections))
	current := 0
	for i, c := range view.Collections {
		titles = append(titles, c.Title)
		if c.Selected {
			current = i
		}
	}
	idx, err := h.driver.Select(ctx, SelectConfig{
		Message:      "Collection",
		Options:      titles,
		DefaultIndex: current,
		PageSize:     h.pageSize,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(view.Collections) || idx == current {
		return nil
	}
	return h.session.Select(ctx, view.Collections[idx].ID)
}

func (h *Host) editField(ctx context.Context, f session.FieldView) error {
	if len(f.Options) == 0 {
		return h.driver.Info(ctx, fmt.Sprintf("%s: no values available", f.Title))
	}

	labels := make([]string, 0, len(f.Options)+1)
	var selected []int
	for i, o := range f.Options {
		labels = append(labels, o.Label)
		if o.Selected {
			selected = append(selected, i)
		}
	}

	if f.Multiple() {
		picked, err := h.driver.MultiSelect(ctx, SelectConfig{
			Message:  f.Title,
			Options:  labels,
			Defaults: selected,
			Help:     f.Help,
			PageSize: h.pageSize,
		})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(f.Options) {
				values = append(values, f.Options[i].Value)
			}
		}
		return h.session.Set(ctx, f.Name, values...)
	}

	labels = append(labels, labelClear)
	current := len(labels) - 1
	if len(selected) > 0 {
		current = selected[0]
	}
	idx, err := h.driver.Select(ctx, SelectConfig{
		Message:      f.Title,
		Options:      labels,
		DefaultIndex: current,
		Help:         f.Help,
		PageSize:     h.pageSize,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(f.Options) {
		return h.session.Set(ctx, f.Name)
	}
	return h.session.Set(ctx, f.Name, f.Options[idx].Value)
}

func collectionTitle(view session.View) string {
	for _, c := range view.Collections {
		if c.Selected {
			return c.Title
		}
	}
	return view.CollectionID
}

func summary(f session.FieldView) string {
	var picked []string
	for _, o := range f.Options {
		if o.Selected {
			picked = append(picked, o.Label)
		}
	}
	if len(picked) == 0 {
		return "-"
	}
	return strings.Join(picked, ", ")
}
