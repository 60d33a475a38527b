package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
)

var errLocked = errors.New("session is locked")

// Seal reads a multi-line text and prints it encrypted under the session
// master key. The blob has the same envelope format as the wrapped master
// key and can be decrypted with Open in any later session.
func (a *App) Seal(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Please unlock first.")
		return errLocked
	}

	text, err := GetMultiline(a.reader, "Enter text (empty line to finish)", a.out)
	if err != nil {
		return err
	}
	plain := []byte(text)

	var blob string
	err = a.keys.WithMasterKey(func(key cryptox.Key) error {
		var err error
		blob, err = cryptox.Encrypt(plain, key)
		return err
	})
	common.WipeByteArray(plain)
	if err != nil {
		a.log.Error(ctx, "seal failed", "error", err)
		printlnFn("Could not seal the text.")
		return err
	}

	printlnFn(blob)
	return nil
}

// Open decrypts a blob produced by Seal and prints the text.
func (a *App) Open(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Please unlock first.")
		return errLocked
	}

	blob, err := getSimpleText(a.reader, "Enter sealed text", a.out)
	if err != nil {
		return err
	}

	var text string
	err = a.keys.WithMasterKey(func(key cryptox.Key) error {
		plain, err := cryptox.Decrypt(blob, key)
		if err != nil {
			return err
		}
		text = string(plain)
		common.WipeByteArray(plain)
		return nil
	})
	if err != nil {
		a.log.Warn(ctx, "open failed", "error", err)
		printlnFn("Could not open the text: it is damaged or was sealed under another key.")
		return err
	}

	printlnFn(text)
	return nil
}
