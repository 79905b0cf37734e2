package logvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// encryptionNonceSize is the nonce size for AES-GCM.
	encryptionNonceSize = 12
	// encryptionSaltSize is the salt size for key derivation.
	encryptionSaltSize = 32
	// encryptionKeySize is the AES-256 key size.
	encryptionKeySize = 32
	// pbkdf2Iterations is the iteration count for key derivation.
	pbkdf2Iterations = 100_000
)

// archiveMagic marks encrypted rollover archives.
var archiveMagic = [4]byte{'L', 'V', 'E', 'C'}

// archiveHeaderSize is magic + version + salt.
const archiveHeaderSize = 4 + 1 + encryptionSaltSize

// encryptor provides AES-256-GCM encryption for archive files, with the key
// derived from a password via PBKDF2.
type encryptor struct {
	gcm  cipher.AEAD
	salt []byte
}

func newEncryptor(password string) (*encryptor, error) {
	salt := make([]byte, encryptionSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return newEncryptorWithSalt(password, salt)
}

func newEncryptorWithSalt(password string, salt []byte) (*encryptor, error) {
	if password == "" {
		return nil, errors.New("encryption password is empty")
	}
	if len(salt) != encryptionSaltSize {
		return nil, errors.New("invalid salt size")
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, encryptionKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &encryptor{gcm: gcm, salt: salt}, nil
}

// seal encrypts plaintext and prepends the random nonce.
func (e *encryptor) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, encryptionNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts ciphertext with its prepended nonce.
func (e *encryptor) open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < encryptionNonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:encryptionNonceSize]
	return e.gcm.Open(nil, nonce, ciphertext[encryptionNonceSize:], nil)
}

// EncryptArchive encrypts an archive payload. The output carries a small
// header (magic, version, key-derivation salt) followed by nonce-prefixed
// AES-GCM ciphertext, so the archive is self-describing for DecryptArchive.
func EncryptArchive(data []byte, password string) ([]byte, error) {
	enc, err := newEncryptor(password)
	if err != nil {
		return nil, err
	}
	sealed, err := enc.seal(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, archiveHeaderSize, archiveHeaderSize+len(sealed))
	copy(out[0:4], archiveMagic[:])
	out[4] = 1
	copy(out[5:], enc.salt)
	return append(out, sealed...), nil
}

// DecryptArchive reverses EncryptArchive given the same password.
func DecryptArchive(data []byte, password string) ([]byte, error) {
	if len(data) < archiveHeaderSize {
		return nil, errors.New("encrypted archive too short")
	}
	if [4]byte(data[0:4]) != archiveMagic {
		return nil, errors.New("invalid encrypted archive magic")
	}
	if data[4] != 1 {
		return nil, errors.New("unsupported encrypted archive version")
	}

	enc, err := newEncryptorWithSalt(password, data[5:archiveHeaderSize])
	if err != nil {
		return nil, err
	}
	return enc.open(data[archiveHeaderSize:])
}
