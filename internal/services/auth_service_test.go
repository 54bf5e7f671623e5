package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setupAuthConfig(t *testing.T) {
	t.Helper()
	viper.Set("jwt.secret_key", "test-secret-key")
	viper.Set("jwt.expiry_hours", 24)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 65536)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("argon2.salt_length", 16)
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig(t)

	t.Run("hash and verify round trip", func(t *testing.T) {
		hash, err := hashPassword("correct horse battery staple")
		assert.NoError(t, err)
		assert.NotEmpty(t, hash)

		assert.True(t, verifyPassword("correct horse battery staple", hash))
		assert.False(t, verifyPassword("wrong password", hash))
	})

	t.Run("same password hashes differently per salt", func(t *testing.T) {
		first, err := hashPassword("password123")
		assert.NoError(t, err)
		second, err := hashPassword("password123")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash is rejected", func(t *testing.T) {
		assert.False(t, verifyPassword("password123", "not-a-hash"))
		assert.False(t, verifyPassword("password123", "a$b$c"))
	})
}

func TestGenerateAccountID(t *testing.T) {
	id := generateAccountID()
	assert.Len(t, id, 10)
	for _, c := range id {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestRegister(t *testing.T) {
	setupAuthConfig(t)

	t.Run("creates user and treasury account", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAuthService(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("new@example.com", sqlmock.AnyArg(), "Jane", "Doe", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs("Jane Doe", sqlmock.AnyArg(), 0, 1).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(RegisterRequest{
			Email:     "new@example.com",
			Password:  "password123",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Register(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "new@example.com", resp.User.Email)
		assert.Len(t, resp.User.AccountId, 10)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAuthService(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		body, _ := json.Marshal(RegisterRequest{
			Email:     "taken@example.com",
			Password:  "password123",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Register(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		service := NewAuthService(nil, nil)

		body := []byte(`{"Email":"not-an-email","Password":"123","FirstName":"J","LastName":"D"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Register(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	setupAuthConfig(t)

	t.Run("valid credentials", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAuthService(db, nil)

		hashed, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, email, first_name, last_name, password, account_id FROM users").
			WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password", "account_id"}).
				AddRow(1, "user@example.com", "Jane", "Doe", hashed, "1234567890"))

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "1234567890", resp.User.AccountId)
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAuthService(db, nil)

		hashed, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, email, first_name, last_name, password, account_id FROM users").
			WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password", "account_id"}).
				AddRow(1, "user@example.com", "Jane", "Doe", hashed, "1234567890"))

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "hunter2hunter2"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Login(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewAuthService(db, nil)

		mock.ExpectQuery("SELECT id, email, first_name, last_name, password, account_id FROM users").
			WithArgs("ghost@example.com").
			WillReturnError(assert.AnError)

		body, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		service.Login(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
