// Copyright (c) 2019, Gareth Watts
// All rights reserved.

//go:build nodecrypt

package session

import "errors"

// IOSDecryptor is unavailable in builds made with the nodecrypt tag.
type IOSDecryptor struct{}

func (IOSDecryptor) Open(dir, passphrase string) (Archive, error) {
	return nil, errors.New("decryption support not compiled in")
}
