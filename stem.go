package progscrape

import "github.com/kljensen/snowball/english"

// Stemmer reduces a word to its index form.
type Stemmer interface {
	Stem(word string) string
}

// StemmerFunc adapts a plain function to the Stemmer interface.
type StemmerFunc func(string) string

func (f StemmerFunc) Stem(word string) string { return f(word) }

// SnowballStemmer stems English words with the Porter2 algorithm.
type SnowballStemmer struct{}

func (SnowballStemmer) Stem(word string) string { return english.Stem(word, true) }
