// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package intake

import "slices"

// Selection is the accepted batch of files awaiting generation, together with
// the last intake error shown to the user. It is not safe for concurrent use.
type Selection struct {
	files []File
	err   error
}

// Accept validates files against l. On success the batch replaces the current
// selection. On failure the selection is reset to empty and the rejection is
// both stored and returned.
func (s *Selection) Accept(l Limits, files []File) error {
	if err := l.Validate(files); err != nil {
		s.files = nil
		s.err = err
		return err
	}
	s.files = slices.Clone(files)
	s.err = nil
	return nil
}

// Reject resets the selection to empty and records err, for batches that
// fail before they can be validated.
func (s *Selection) Reject(err error) {
	s.files = nil
	s.err = err
}

// Remove drops the file at index i and clears any intake error. An index
// outside the selection removes nothing.
func (s *Selection) Remove(i int) {
	s.err = nil
	if i < 0 || i >= len(s.files) {
		return
	}
	s.files = slices.Delete(slices.Clone(s.files), i, i+1)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.files = nil
	s.err = nil
}

// Files returns the selected files in selection order.
func (s *Selection) Files() []File {
	return slices.Clone(s.files)
}

// Len reports the number of selected files.
func (s *Selection) Len() int { return len(s.files) }

// Err returns the last intake error, if it has not been cleared.
func (s *Selection) Err() error { return s.err }
