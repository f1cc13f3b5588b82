////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// account is the stored credential record.
type account struct {
	ID        string    `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Hash      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name used by account.
func (account) TableName() string {
	return "accounts"
}

// localProvider implements Provider against the client's own database with
// bcrypt-hashed credentials.
type localProvider struct {
	db *gorm.DB

	mux       sync.Mutex
	currentID string
	callbacks map[uint64]StateCallback
	nextCbID  uint64
}

// NewLocalProvider migrates the account table and returns a Provider backed
// by it.
func NewLocalProvider(db *gorm.DB) (Provider, error) {
	if err := db.AutoMigrate(&account{}); err != nil {
		return nil, errors.Errorf("failed to migrate accounts: %+v", err)
	}
	return &localProvider{
		db:        db,
		callbacks: make(map[uint64]StateCallback),
	}, nil
}

func (p *localProvider) SignUp(email, password string) (string, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return "", err
	}
	email = normalizeEmail(email)

	var count int64
	err := p.db.Model(&account{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return "", errors.Errorf("failed to check email: %+v", err)
	}
	if count > 0 {
		return "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password),
		bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Errorf("failed to hash password: %+v", err)
	}

	acct := account{ID: uuid.NewString(), Email: email, Hash: hash}
	if err = p.db.Create(&acct).Error; err != nil {
		return "", errors.Errorf("failed to create account: %+v", err)
	}

	jww.INFO.Printf("[AUTH] Registered account %s", acct.ID)
	p.setCurrent(acct.ID)
	return acct.ID, nil
}

func (p *localProvider) SignIn(email, password string) (string, error) {
	email = normalizeEmail(email)

	var acct account
	err := p.db.Take(&acct, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", errors.Errorf("failed to look up account: %+v", err)
	}

	if bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	jww.INFO.Printf("[AUTH] Signed in account %s", acct.ID)
	p.setCurrent(acct.ID)
	return acct.ID, nil
}

func (p *localProvider) SignOut() {
	p.setCurrent("")
}

func (p *localProvider) CurrentUser() (string, bool) {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.currentID, p.currentID != ""
}

func (p *localProvider) DeleteAccount() error {
	p.mux.Lock()
	id := p.currentID
	p.mux.Unlock()
	if id == "" {
		return ErrNotSignedIn
	}

	if err := p.db.Delete(&account{}, "id = ?", id).Error; err != nil {
		return errors.Errorf("failed to delete account: %+v", err)
	}

	jww.INFO.Printf("[AUTH] Deleted account %s", id)
	p.setCurrent("")
	return nil
}

func (p *localProvider) RegisterStateCallback(cb StateCallback) func() {
	p.mux.Lock()
	cbID := p.nextCbID
	p.nextCbID++
	p.callbacks[cbID] = cb
	current := p.currentID
	p.mux.Unlock()

	// Deliver the current state immediately, mirroring the hosted
	// provider's behavior on listener attach.
	cb(current, current != "")

	return func() {
		p.mux.Lock()
		defer p.mux.Unlock()
		delete(p.callbacks, cbID)
	}
}

// setCurrent swaps the current user and fans the change out to all state
// callbacks. Callbacks run synchronously; they must not block.
func (p *localProvider) setCurrent(id string) {
	p.mux.Lock()
	if p.currentID == id {
		p.mux.Unlock()
		return
	}
	p.currentID = id
	cbs := make([]StateCallback, 0, len(p.callbacks))
	for _, cb := range p.callbacks {
		cbs = append(cbs, cb)
	}
	p.mux.Unlock()

	for _, cb := range cbs {
		cb(id, id != "")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
