package seal

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewSymmetric(t *testing.T) {
	cipher, err := NewSymmetric(testKey())
	if err != nil {
		t.Fatalf("unexpected error with valid key: %v", err)
	}
	if cipher == nil {
		t.Fatal("expected non-nil cipher")
	}

	// AES requires 16, 24, or 32 bytes
	_, err = NewSymmetric(make([]byte, 15))
	if err == nil {
		t.Error("expected error with invalid key size")
	}
}

func TestSymmetricRoundTrip(t *testing.T) {
	cipher, err := NewSymmetric(testKey())
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	tests := []struct {
		name      string
		aad       []byte
		plaintext []byte
	}{
		{
			name:      "simple payload",
			aad:       []byte("projects/p1/secrets/wallet-a/versions/latest"),
			plaintext: []byte("deadbeef"),
		},
		{
			name:      "empty payload",
			aad:       []byte("locator"),
			plaintext: []byte(""),
		},
		{
			name:      "long payload",
			aad:       []byte("locator"),
			plaintext: bytes.Repeat([]byte("k"), 10000),
		},
		{
			name:      "binary payload",
			aad:       []byte("locator"),
			plaintext: []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0xfd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := cipher.Encrypt(tt.aad, tt.plaintext)
			if err != nil {
				t.Fatalf("encryption failed: %v", err)
			}

			if len(tt.plaintext) > 0 && bytes.Equal(ciphertext, tt.plaintext) {
				t.Error("ciphertext should differ from plaintext")
			}

			decrypted, err := cipher.Decrypt(tt.aad, ciphertext)
			if err != nil {
				t.Fatalf("decryption failed: %v", err)
			}

			if !bytes.Equal(decrypted, tt.plaintext) {
				t.Errorf("decrypted doesn't match original: got %v, want %v", decrypted, tt.plaintext)
			}
		})
	}
}

func TestSymmetricDecryptWithWrongAAD(t *testing.T) {
	cipher, _ := NewSymmetric(testKey())

	ciphertext, err := cipher.Encrypt([]byte("locator-a"), []byte("secret data"))
	if err != nil {
		t.Fatalf("encryption failed: %v", err)
	}

	_, err = cipher.Decrypt([]byte("locator-b"), ciphertext)
	if err == nil {
		t.Error("expected decryption to fail with wrong AAD")
	}
}

func TestSymmetricDecryptRejectsMalformedInput(t *testing.T) {
	cipher, _ := NewSymmetric(testKey())

	if _, err := cipher.Decrypt([]byte("aad"), []byte("short")); err == nil {
		t.Error("expected error for truncated ciphertext")
	}

	ciphertext, err := cipher.Encrypt([]byte("aad"), []byte("secret data"))
	if err != nil {
		t.Fatalf("encryption failed: %v", err)
	}

	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err := cipher.Decrypt([]byte("aad"), ciphertext); err == nil {
		t.Error("expected decryption to fail with corrupted ciphertext")
	}

	ciphertext[len(ciphertext)-1] ^= 0xff
	ciphertext[0] = 'X'
	if _, err := cipher.Decrypt([]byte("aad"), ciphertext); err == nil {
		t.Error("expected error for unknown version magic")
	}
}

func TestSymmetricEncryptionIsNonDeterministic(t *testing.T) {
	cipher, _ := NewSymmetric(testKey())

	plaintext := []byte("same payload")
	aad := []byte("locator")

	ciphertext1, _ := cipher.Encrypt(aad, plaintext)
	ciphertext2, _ := cipher.Encrypt(aad, plaintext)

	if bytes.Equal(ciphertext1, ciphertext2) {
		t.Error("encrypting same plaintext twice should produce different ciphertexts")
	}

	decrypted1, _ := cipher.Decrypt(aad, ciphertext1)
	decrypted2, _ := cipher.Decrypt(aad, ciphertext2)

	if !bytes.Equal(decrypted1, plaintext) || !bytes.Equal(decrypted2, plaintext) {
		t.Error("both ciphertexts should decrypt to original plaintext")
	}
}

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}

	b, _ := RandomBytes(32)
	if bytes.Equal(a, b) {
		t.Error("two draws from the CSPRNG should differ")
	}
}
