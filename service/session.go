package service

import (
	"strconv"
	"time"

	"github.com/andrewbot/andrewbot/common"
	"github.com/andrewbot/andrewbot/db"
	"github.com/andrewbot/andrewbot/model"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const codeAlphabet = "0123456789"

// fakeSecondaryID is the fixed capability of the synthetic testing session.
var fakeSecondaryID = uuid.MustParse("8ab14a16-9168-4d44-95d7-605ef23583f8")

// Manager owns the verification session state machine. Sessions are keyed
// by user id, one live session per user. All mutations run inside a single
// bolt write transaction, so concurrent calls for the same user are
// serialized by the store and a read-modify-write can never interleave.
type Manager struct {
	db     *bolt.DB
	expiry time.Duration
}

func New(database *bolt.DB, expiry time.Duration) *Manager {
	return &Manager{
		db:     database,
		expiry: expiry,
	}
}

// DB exposes the underlying store handle.
func (m *Manager) DB() *bolt.DB {
	return m.db
}

// VerifyResult reports the outcome of a code attempt.
type VerifyResult struct {
	Verified          bool
	RemainingAttempts int
}

func sessionKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

// getSession reads the session for userID within tx. A missing record and a
// secondary id mismatch are indistinguishable: both return ErrKeyNotFound.
func getSession(bkt *bolt.Bucket, userID int64, secondaryID uuid.UUID) (*model.Session, error) {
	b := bkt.Get(sessionKey(userID))
	if b == nil {
		return nil, db.ErrKeyNotFound
	}
	var session model.Session
	if err := jsoniter.Unmarshal(b, &session); err != nil {
		return nil, db.ErrKeyNotFound
	}
	if session.SecondaryID != secondaryID {
		return nil, db.ErrKeyNotFound
	}
	return &session, nil
}

func putSession(bkt *bolt.Bucket, session *model.Session) error {
	b, err := jsoniter.Marshal(session)
	if err != nil {
		return err
	}
	return bkt.Put(sessionKey(session.UserID), b)
}

// CreateOrGet starts a new session for userID, or returns the secondary id
// of the existing one unchanged. Repeated invocations never regenerate the
// code, so a user cannot mint fresh codes by spamming the command.
func (m *Manager) CreateOrGet(userID int64, guildID int64, name string) (secondaryID uuid.UUID, err error) {
	code, err := gonanoid.Generate(codeAlphabet, 6)
	if err != nil {
		return uuid.Nil, err
	}
	secondaryID = uuid.New()
	err = m.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketSession))
		if err != nil {
			return err
		}
		if b := bkt.Get(sessionKey(userID)); b != nil {
			var existing model.Session
			if err := jsoniter.Unmarshal(b, &existing); err == nil {
				secondaryID = existing.SecondaryID
				return nil
			}
			// an undecodable record is replaced; the sweep would drop it anyway
		}
		log.Info("Started new session for (%v, %v)", name, userID)
		return putSession(bkt, &model.Session{
			SecondaryID:       secondaryID,
			UserID:            userID,
			GuildID:           guildID,
			Name:              name,
			Code:              code,
			CreatedAt:         time.Now(),
			State:             model.StateAwaitingStart,
			RemainingAttempts: model.MaxAttempts,
		})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return secondaryID, nil
}

// NewFake seeds the synthetic testing session under user id 0. It carries
// the reserved testing code and is skipped by ForEachVerified, so it can
// never cause a real role grant.
func (m *Manager) NewFake() (uuid.UUID, error) {
	err := m.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketSession))
		if err != nil {
			return err
		}
		return putSession(bkt, &model.Session{
			SecondaryID:       fakeSecondaryID,
			UserID:            0,
			GuildID:           0,
			Name:              "Testing#123",
			Code:              model.TestingCode,
			CreatedAt:         time.Now(),
			State:             model.StateAwaitingStart,
			RemainingAttempts: model.MaxAttempts,
		})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return fakeSecondaryID, nil
}

// Session returns the session for (userID, secondaryID), or ErrKeyNotFound
// when it does not exist or the capability does not match.
func (m *Manager) Session(userID int64, secondaryID uuid.UUID) (*model.Session, error) {
	var session *model.Session
	err := m.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(model.BucketSession))
		if bkt == nil {
			return db.ErrKeyNotFound
		}
		s, err := getSession(bkt, userID, secondaryID)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetEmailSent transitions a session into AwaitingCode. Calling it twice is
// harmless, and terminal sessions are left untouched.
func (m *Manager) SetEmailSent(userID int64, secondaryID uuid.UUID) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketSession))
		if err != nil {
			return err
		}
		session, err := getSession(bkt, userID, secondaryID)
		if err != nil {
			// The session can expire and get swept between the caller's
			// lookup and this call. Harmless: the user just starts over.
			log.Warn("Session (%v, %v) went poof mid-transition", userID, secondaryID)
			return err
		}
		if session.State != model.StateAwaitingStart && session.State != model.StateAwaitingCode {
			return nil
		}
		session.State = model.StateAwaitingCode
		return putSession(bkt, session)
	})
}

// Verify checks attemptedCode against the session's code. A session with no
// attempts left is reported as exhausted without being deleted, so a failed
// user cannot force a fresh code by retrying; deletion waits for the expiry
// sweep or an administrative reset.
func (m *Manager) Verify(userID int64, secondaryID uuid.UUID, attemptedCode string) (res VerifyResult, err error) {
	err = m.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketSession))
		if err != nil {
			return err
		}
		session, err := getSession(bkt, userID, secondaryID)
		if err != nil {
			return err
		}
		if session.RemainingAttempts == 0 {
			res = VerifyResult{RemainingAttempts: 0}
			return nil
		}
		if attemptedCode == session.Code {
			session.State = model.StateVerified
			res = VerifyResult{Verified: true, RemainingAttempts: session.RemainingAttempts}
			return putSession(bkt, session)
		}
		if session.State == model.StateVerified {
			// verified is terminal; a wrong code afterwards burns nothing
			res = VerifyResult{RemainingAttempts: session.RemainingAttempts}
			return nil
		}
		session.RemainingAttempts--
		if session.RemainingAttempts == 0 {
			session.State = model.StateFailed
		}
		res = VerifyResult{RemainingAttempts: session.RemainingAttempts}
		return putSession(bkt, session)
	})
	if err != nil {
		return VerifyResult{}, err
	}
	return res, nil
}

// DeleteSession removes the session for userID unconditionally. Used by the
// administrative reset; expired sessions are normally left to the sweep.
func (m *Manager) DeleteSession(userID int64) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketSession))
		if err != nil {
			return err
		}
		if bkt.Get(sessionKey(userID)) == nil {
			log.Warn("Attempted to delete nonexistent session for %v", userID)
			return db.ErrKeyNotFound
		}
		return bkt.Delete(sessionKey(userID))
	})
}

func (m *Manager) expired(session *model.Session) bool {
	return common.Expired(session.CreatedAt.Add(m.expiry))
}

// snapshotKeys copies the current key set so that the scan loops below
// never iterate inside a long-lived transaction.
func (m *Manager) snapshotKeys() (keys [][]byte, err error) {
	err = m.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(model.BucketSession))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, b []byte) error {
			key := make([]byte, len(k))
			copy(key, k)
			keys = append(keys, key)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// CollectGarbage deletes every session older than the configured expiry,
// regardless of state. The key set is snapshotted first and each record is
// then handled in its own short write transaction, so live traffic is never
// starved; a record vanishing in between is a no-op.
func (m *Manager) CollectGarbage() (deleted int, err error) {
	keys, err := m.snapshotKeys()
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		err := m.db.Update(func(tx *bolt.Tx) error {
			bkt := tx.Bucket([]byte(model.BucketSession))
			if bkt == nil {
				return nil
			}
			b := bkt.Get(key)
			if b == nil {
				return nil
			}
			var session model.Session
			if err := jsoniter.Unmarshal(b, &session); err != nil {
				// invalid sessions are regarded as expired
				deleted++
				return bkt.Delete(key)
			}
			if m.expired(&session) {
				deleted++
				return bkt.Delete(key)
			}
			return nil
		})
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// ForEachVerified calls fn for every session currently in the Verified
// state, except the synthetic testing session. Like CollectGarbage it
// snapshots the key set and reads each record in its own transaction, so fn
// may take its time (or fail) without holding the store.
func (m *Manager) ForEachVerified(fn func(session model.Session)) error {
	keys, err := m.snapshotKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		var session model.Session
		var ok bool
		err := m.db.View(func(tx *bolt.Tx) error {
			bkt := tx.Bucket([]byte(model.BucketSession))
			if bkt == nil {
				return nil
			}
			b := bkt.Get(key)
			if b == nil {
				return nil
			}
			if err := jsoniter.Unmarshal(b, &session); err != nil {
				return nil
			}
			ok = session.State == model.StateVerified
			return nil
		})
		if err != nil {
			return err
		}
		if !ok || session.Code == model.TestingCode {
			continue
		}
		fn(session)
	}
	return nil
}
