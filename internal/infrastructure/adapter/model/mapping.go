package model

import (
	"encoding/json"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
)

// UserFromEntity converts a domain user into its row
func UserFromEntity(u *entity.User) *User {
	return &User{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		BusinessName:   u.BusinessName,
		CreditsBalance: u.Credits(),
		LocationID:     u.LocationID,
		AuthType:       string(u.AuthType),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// ToEntity converts the row into a domain user
func (m *User) ToEntity() *entity.User {
	u := &entity.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		BusinessName: m.BusinessName,
		LocationID:   m.LocationID,
		AuthType:     entity.AuthType(m.AuthType),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	u.SetCredits(m.CreditsBalance)
	return u
}

// CreditEntryFromEntity converts a ledger entry into its row
func CreditEntryFromEntity(e *entity.CreditEntry) *CreditEntry {
	row := &CreditEntry{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Kind:        string(e.Kind),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.Reference != "" {
		ref := e.Reference
		row.Reference = &ref
	}
	return row
}

// ToEntity converts the row into a ledger entry
func (m *CreditEntry) ToEntity() *entity.CreditEntry {
	e := &entity.CreditEntry{
		ID:          m.ID,
		UserID:      m.UserID,
		Amount:      m.Amount,
		Kind:        entity.CreditKind(m.Kind),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
	if m.Reference != nil {
		e.Reference = *m.Reference
	}
	return e
}

// TransactionFromEntity converts a payment transaction into its row
func TransactionFromEntity(t *entity.Transaction) *Transaction {
	return &Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		AmountCents: t.AmountCents,
		Credits:     t.Credits,
		Status:      string(t.Status),
		SessionID:   t.SessionID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToEntity converts the row into a payment transaction
func (m *Transaction) ToEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		AmountCents: m.AmountCents,
		Credits:     m.Credits,
		Status:      entity.TransactionStatus(m.Status),
		SessionID:   m.SessionID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// VideoFromEntity converts a job into its row
func VideoFromEntity(v *entity.Video) (*Video, error) {
	images, err := json.Marshal(v.Images)
	if err != nil {
		return nil, err
	}
	return &Video{
		ID:                v.ID,
		UserID:            v.UserID,
		Prompt:            v.Prompt,
		AdditionalDetails: v.AdditionalDetails,
		Service:           string(v.Service),
		Tier:              string(v.Tier),
		VideoType:         string(v.Type),
		AspectRatio:       v.AspectRatio,
		RequestedEmail:    v.RequestedEmail,
		SourceImages:      images,
		ChargedCredits:    v.ChargedCredits,
		Status:            string(v.Status),
		VideoURL:          v.VideoURL,
		ErrorMessage:      v.ErrorMessage,
		TaskID:            v.TaskID,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		CompletedAt:       v.CompletedAt,
	}, nil
}

// ToEntity converts the row into a job
func (m *Video) ToEntity() (*entity.Video, error) {
	var images entity.SourceImages
	if len(m.SourceImages) > 0 {
		if err := json.Unmarshal(m.SourceImages, &images); err != nil {
			return nil, err
		}
	}
	return &entity.Video{
		ID:                m.ID,
		UserID:            m.UserID,
		Prompt:            m.Prompt,
		AdditionalDetails: m.AdditionalDetails,
		Service:           entity.Service(m.Service),
		Tier:              entity.Tier(m.Tier),
		Type:              entity.VideoType(m.VideoType),
		AspectRatio:       m.AspectRatio,
		RequestedEmail:    m.RequestedEmail,
		Images:            images,
		ChargedCredits:    m.ChargedCredits,
		Status:            entity.VideoStatus(m.Status),
		VideoURL:          m.VideoURL,
		ErrorMessage:      m.ErrorMessage,
		TaskID:            m.TaskID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		CompletedAt:       m.CompletedAt,
	}, nil
}

// IntegrationFromEntity converts an integration into its row
func IntegrationFromEntity(i *entity.Integration) *Integration {
	return &Integration{
		ID:           i.ID,
		UserID:       i.UserID,
		APIKey:       i.APIKey,
		LocationID:   i.LocationID,
		BusinessName: i.BusinessName,
		Email:        i.Email,
		Phone:        i.Phone,
		IsConnected:  i.Connected,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// ToEntity converts the row into an integration
func (m *Integration) ToEntity() *entity.Integration {
	return &entity.Integration{
		ID:           m.ID,
		UserID:       m.UserID,
		APIKey:       m.APIKey,
		LocationID:   m.LocationID,
		BusinessName: m.BusinessName,
		Email:        m.Email,
		Phone:        m.Phone,
		Connected:    m.IsConnected,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// EmbeddedSessionFromEntity converts a session into its row
func EmbeddedSessionFromEntity(s *entity.EmbeddedSession) *EmbeddedSession {
	return &EmbeddedSession{
		ID:         s.ID,
		LocationID: s.LocationID,
		TokenHash:  s.TokenHash,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	}
}

// ToEntity converts the row into a session
func (m *EmbeddedSession) ToEntity() *entity.EmbeddedSession {
	return &entity.EmbeddedSession{
		ID:         m.ID,
		LocationID: m.LocationID,
		TokenHash:  m.TokenHash,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
	}
}
