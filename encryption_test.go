package logvault

import (
	"bytes"
	"testing"
)

func TestEncryptArchiveRoundTrip(t *testing.T) {
	plaintext := []byte("batch of rendered log events")

	sealed, err := EncryptArchive(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	got, err := DecryptArchive(sealed, "correct horse")
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip = %q, want %q", got, plaintext)
	}
}

func TestDecryptArchiveWrongPassword(t *testing.T) {
	sealed, err := EncryptArchive([]byte("secret"), "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptArchive(sealed, "wrong"); err == nil {
		t.Error("decrypt with wrong password should fail")
	}
}

func TestDecryptArchiveMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("LVEC")},
		{"bad magic", bytes.Repeat([]byte{0xFF}, archiveHeaderSize+32)},
	}
	for _, tc := range cases {
		if _, err := DecryptArchive(tc.data, "pw"); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	// Valid header, truncated body.
	sealed, err := EncryptArchive([]byte("payload"), "pw")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptArchive(sealed[:archiveHeaderSize+4], "pw"); err == nil {
		t.Error("truncated ciphertext should fail")
	}
}

func TestEncryptArchiveEmptyPassword(t *testing.T) {
	if _, err := EncryptArchive([]byte("data"), ""); err == nil {
		t.Error("empty password should be rejected")
	}
}
