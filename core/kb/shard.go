package kb

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"ruleminer/core/atom"
)

// DecryptShard decrypts an AES-GCM-sealed triple dump and parses the
// plaintext as a sequence of 12-byte big-endian triple records, verifying
// the plaintext's checksum before parsing it. KBs distributed as encrypted
// bundles (e.g. a corpus shipped alongside a release artifact) are loaded
// this way and then handed to NewMemoryKB or BadgerKB.Load.
func DecryptShard(key, nonce, cipherText, wantChecksum []byte) ([]atom.Triple, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("kb: shard cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("kb: shard gcm: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("kb: shard decrypt: %w", err)
	}
	if len(wantChecksum) > 0 && !verifyChecksum(plain, wantChecksum) {
		return nil, fmt.Errorf("kb: shard checksum mismatch")
	}
	if len(plain)%tripleRecordSize != 0 {
		return nil, fmt.Errorf("kb: shard plaintext length %d not a multiple of %d", len(plain), tripleRecordSize)
	}
	out := make([]atom.Triple, 0, len(plain)/tripleRecordSize)
	for off := 0; off < len(plain); off += tripleRecordSize {
		rec := plain[off : off+tripleRecordSize]
		out = append(out, atom.Triple{
			binary.BigEndian.Uint32(rec[0:4]),
			binary.BigEndian.Uint32(rec[4:8]),
			binary.BigEndian.Uint32(rec[8:12]),
		})
	}
	return out, nil
}

func verifyChecksum(plain, want []byte) bool {
	got := sha3.Sum256(plain)
	if len(want) != len(got) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
