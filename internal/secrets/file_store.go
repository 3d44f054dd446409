// Package secrets keeps the OAuth client secret in an encrypted file so it
// never has to sit in the config in clear text.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"

	"github.com/queueops/queuectl/faults"
)

const (
	storeVersion   = 1
	keyLengthBytes = 32
	saltLength     = 16

	defaultKDFTime    uint32 = 2
	defaultKDFMemory  uint32 = 64 * 1024
	defaultKDFThreads uint8  = 2
)

type sealedEnvelope struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// FileStore seals one secret into a JSON envelope on disk. The key is
// derived from the passphrase with argon2id and the payload sealed with
// AES-GCM.
type FileStore struct {
	path       string
	passphrase []byte
}

func NewFileStore(path string, passphrase []byte) (*FileStore, error) {
	if path == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store path must not be empty", nil)
	}
	if len(passphrase) == 0 {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store passphrase must not be empty", nil)
	}
	return &FileStore{path: filepath.Clean(path), passphrase: passphrase}, nil
}

func (s *FileStore) Seal(secret []byte) error {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to generate salt", err)
	}

	gcm, err := s.cipherMode(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to generate nonce", err)
	}

	envelope := sealedEnvelope{
		Version:    storeVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, secret, nil)),
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to encode secret envelope", err)
	}

	return writeAtomicFile(s.path, encoded, 0o600)
}

func (s *FileStore) Open() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.NewTypedError(faults.NotFoundError, "secret store file does not exist", err)
		}
		return nil, faults.NewTypedError(faults.InternalError, "failed to read secret store", err)
	}

	var envelope sealedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store file is corrupt", err)
	}
	if envelope.Version != storeVersion {
		return nil, faults.NewTypedError(faults.ValidationError, "unsupported secret store version", nil)
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store salt is corrupt", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store nonce is corrupt", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store ciphertext is corrupt", err)
	}

	gcm, err := s.cipherMode(salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, faults.NewTypedError(faults.ValidationError, "secret store nonce has wrong length", nil)
	}

	secret, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, faults.NewTypedError(faults.AuthError, "failed to decrypt secret store, wrong passphrase?", err)
	}
	return secret, nil
}

func (s *FileStore) cipherMode(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.passphrase, salt, defaultKDFTime, defaultKDFMemory, defaultKDFThreads, keyLengthBytes)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to initialize secret cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to initialize secret cipher mode", err)
	}
	return gcm, nil
}

func writeAtomicFile(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to create secret store directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".queuectl-secret-*")
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return faults.NewTypedError(faults.InternalError, "failed to write secret store", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return faults.NewTypedError(faults.InternalError, "failed to set secret store permissions", err)
	}
	if err := tmp.Close(); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to close secret store file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to replace secret store file", err)
	}
	return nil
}
