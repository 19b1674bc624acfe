package auth

import "os"

// APIKeyEnv is the environment variable holding the Steam Web API key
const APIKeyEnv = "STEAMREVIEWS_API_KEY"

// EnvironmentStore implements CredentialStore on top of STEAMREVIEWS_API_KEY.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// EnvAccount is the name the environment key is listed under
const EnvAccount = "env"

// Retrieve returns the environment key. Only the empty name and EnvAccount
// resolve to it.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != "" && name != EnvAccount {
		return nil, ErrCredentialsNotFound
	}

	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:   EnvAccount,
		APIKey: key,
	}, nil
}

// List returns a single account if the environment variable is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment key is set
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
