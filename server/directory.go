package server

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// UserDirectory resolves the user profile handed to specialists for
// personalization. WhatsApp users are enrolled on first contact, keyed by
// phone number.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (contractx.UserInfo, bool)
	EnsureFromPhone(ctx context.Context, phone, profileName string) (userID string, info contractx.UserInfo)
}

// MemoryDirectory is the in-process UserDirectory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]contractx.UserInfo
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]contractx.UserInfo)}
}

// Register seeds or updates a user profile.
func (d *MemoryDirectory) Register(userID string, info contractx.UserInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = info
}

func (d *MemoryDirectory) Lookup(ctx context.Context, userID string) (contractx.UserInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.users[userID]
	return info, ok
}

// EnsureFromPhone enrolls an unknown WhatsApp sender as a farmer. The
// derived user id is stable for the phone number so their sessions attach
// to the same identity across messages.
func (d *MemoryDirectory) EnsureFromPhone(ctx context.Context, phone, profileName string) (string, contractx.UserInfo) {
	userID := WhatsAppUserID(phone)

	d.mu.Lock()
	defer d.mu.Unlock()
	if info, ok := d.users[userID]; ok {
		if info.Name == "" && profileName != "" {
			info.Name = profileName
			d.users[userID] = info
		}
		return userID, d.users[userID]
	}

	info := contractx.UserInfo{Phone: phone, Name: profileName, Type: "farmer"}
	d.users[userID] = info
	return userID, info
}

// WhatsAppUserID derives a deterministic user id from a phone number.
func WhatsAppUserID(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "wa_" + digits
}
