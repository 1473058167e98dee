// Package encryption seals small payloads at rest, such as job result
// mirrors, with an AEAD cipher derived from a passphrase.
//
//	enc, err := encryption.New(cfg.Mirror.EncryptionKey)
//	sealed, err := enc.Seal([]byte(text))
package encryption
