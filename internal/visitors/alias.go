// Package visitors derives display names for visitors without exposing their identifiers.
package visitors

import "hash/fnv"

var adjectives = []string{
	"Curious", "Happy", "Clever", "Wise", "Playful", "Brave", "Swift", "Gentle", "Busy", "Bold",
	"Lively", "Agile", "Nimble", "Quick", "Bright", "Radiant", "Cheerful", "Jolly", "Merry", "Creative",
	"Elegant", "Graceful", "Friendly", "Kind", "Warm", "Magical", "Charming", "Peaceful", "Calm", "Serene",
	"Tranquil", "Quiet", "Daring", "Fearless", "Spirited", "Vibrant", "Dapper", "Cordial", "Patient", "Steady",
}

var animals = []string{
	"Panda", "Fox", "Owl", "Otter", "Lion", "Eagle", "Deer", "Raven", "Beaver", "Koala",
	"Sloth", "Hamster", "Bear", "Penguin", "Kangaroo", "Parrot", "Giraffe", "Raccoon", "Elephant", "Meerkat",
	"Llama", "Rabbit", "Hedgehog", "Tiger", "Wolf", "Falcon", "Hawk", "Dolphin", "Whale", "Seahorse",
	"Turtle", "Octopus", "Seal", "Walrus", "Heron", "Swan", "Crane", "Finch", "Sparrow", "Lynx",
}

// Alias returns a stable "Adjective Animal" name for key. Equal keys always get the
// same alias; an empty key yields "".
func Alias(key string) string {
	if key == "" {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	sum := int(h.Sum32())

	return adjectives[sum%len(adjectives)] + " " + animals[(sum/len(adjectives))%len(animals)]
}

// Key picks what identifies a visitor for aliasing: the visitor id when present,
// otherwise the client address and signature together.
func Key(visitorID, address, signature string) string {
	if visitorID != "" {
		return "id:" + visitorID
	}
	if address == "" && signature == "" {
		return ""
	}
	return "client:" + address + "|" + signature
}
