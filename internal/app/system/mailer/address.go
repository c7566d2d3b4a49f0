// internal/app/system/mailer/address.go
package mailer

import "net/mail"

func parseAddress(s string) (string, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return a.Address, nil
}
