// Package store is the console's local persistent state: the bearer
// credential for the billing backend and the user's email-sender
// preferences. Values live in a BoltDB file under fixed keys, JSON-encoded.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/atlasinovacoes/portalperf/internal/settings"
)

var bucketState = []byte("state")

const (
	keyCredential    = "credential"
	keyEmailSettings = "email_settings"
)

// Credential is the backend bearer token with its absolute expiry.
type Credential struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// Expired reports whether the credential is past its expiry.
func (c Credential) Expired() bool {
	return time.Now().After(c.Expiry)
}

type Store struct {
	db                *bolt.DB
	mandatoryCc       string
	defaultSenderName string
}

// Open opens (creating if needed) the state database.
func Open(path, mandatoryCc, defaultSenderName string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state bucket: %w", err)
	}

	return &Store{db: db, mandatoryCc: mandatoryCc, defaultSenderName: defaultSenderName}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Credential returns the stored credential, or nil when absent. An expired
// credential is treated as absent and removed from storage on read.
func (s *Store) Credential() (*Credential, error) {
	var cred *Credential
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		data := b.Get([]byte(keyCredential))
		if data == nil {
			return nil
		}

		var c Credential
		if err := json.Unmarshal(data, &c); err != nil {
			// Corrupt value: treat as absent and clean up.
			return b.Delete([]byte(keyCredential))
		}
		if c.Expired() {
			return b.Delete([]byte(keyCredential))
		}
		cred = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// SetCredential stores a token that expires expiresIn seconds from now.
func (s *Store) SetCredential(token string, expiresIn int) error {
	cred := Credential{
		Token:  token,
		Expiry: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(keyCredential), data)
	})
}

// ClearCredential removes the stored credential.
func (s *Store) ClearCredential() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Delete([]byte(keyCredential))
	})
}

// Token implements backend.TokenSource: it returns the current bearer
// token or empty when no valid credential is stored.
func (s *Store) Token() string {
	cred, err := s.Credential()
	if err != nil || cred == nil {
		return ""
	}
	return cred.Token
}

// EmailSettings returns the stored sender preferences. Malformed or missing
// data falls back to defaults, and the mandatory compliance CC is forced on
// every load regardless of what was stored.
func (s *Store) EmailSettings() settings.EmailSettings {
	out := settings.DefaultEmailSettings(s.mandatoryCc, s.defaultSenderName)

	s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketState).Get([]byte(keyEmailSettings))
		if data == nil {
			return nil
		}
		var stored settings.EmailSettings
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil
		}
		out = stored
		return nil
	})

	out.MandatoryCc = s.mandatoryCc
	return out
}

// SetEmailSettings persists the sender preferences.
func (s *Store) SetEmailSettings(es settings.EmailSettings) error {
	es.MandatoryCc = s.mandatoryCc
	data, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("failed to marshal email settings: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(keyEmailSettings), data)
	})
}
