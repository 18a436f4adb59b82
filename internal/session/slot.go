// Package session holds the per-user coordination primitives shared by the
// Telegram bot and the HTTP API.
package session

import (
	"sync"

	"github.com/raine/copywriter-bot/internal/content"
)

// ImageSlot is a single-slot mailbox. Put replaces whatever is staged and
// Take hands the image to exactly one reader, leaving the slot empty.
type ImageSlot struct {
	mu  sync.Mutex
	img *content.UploadedImage
}

// Put stages an image and returns the one it replaced, if any.
func (s *ImageSlot) Put(img *content.UploadedImage) *content.UploadedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.img
	s.img = img
	return prev
}

// Take removes and returns the staged image. The second return is false if
// the slot was empty.
func (s *ImageSlot) Take() (*content.UploadedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := s.img
	s.img = nil
	return img, img != nil
}

// Peek reports whether an image is staged without consuming it.
func (s *ImageSlot) Peek() (*content.UploadedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, s.img != nil
}

// Slots keeps one ImageSlot per user. A user has an entry only while an
// image is staged, so the map does not grow with every user ever seen.
type Slots struct {
	mu    sync.Mutex
	slots map[string]*ImageSlot
}

func NewSlots() *Slots {
	return &Slots{slots: make(map[string]*ImageSlot)}
}

// Put stages img for the user and returns the image it replaced, if any.
// A nil img clears the user's slot.
func (s *Slots) Put(userID string, img *content.UploadedImage) *content.UploadedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[userID]
	if img == nil {
		if !ok {
			return nil
		}
		delete(s.slots, userID)
		prev, _ := slot.Take()
		return prev
	}
	if !ok {
		slot = &ImageSlot{}
		s.slots[userID] = slot
	}
	return slot.Put(img)
}

// Take hands the user's staged image to exactly one caller and drops the
// user's entry.
func (s *Slots) Take(userID string) (*content.UploadedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[userID]
	if !ok {
		return nil, false
	}
	delete(s.slots, userID)
	return slot.Take()
}

// Peek reports the user's staged image without consuming it.
func (s *Slots) Peek(userID string) (*content.UploadedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[userID]
	if !ok {
		return nil, false
	}
	return slot.Peek()
}

// Len is the number of users with a staged image.
func (s *Slots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
