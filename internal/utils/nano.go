package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	NanoidSize     = 32
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NanoID returns a random alphanumeric ID used for requests, responses,
// events and registered donors.
func NanoID() string {
	return NanoIDSize(NanoidSize)
}

// NanoIDSize returns an ID of the given length; size <= 0 uses NanoidSize.
func NanoIDSize(size int) string {
	if size <= 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
