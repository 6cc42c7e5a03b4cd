// Package accounts normalizes heterogeneous per-platform credential metadata
// into the unified connected-account list shown for display/selection.
package accounts

import (
	"github.com/mkarpenko/socialvault/internal/model"
)

// extractor maps one platform's metadata shape to PlatformAccount entries.
type extractor func(doc map[string]any) []model.PlatformAccount

// Dispatch table keyed on platform identifier. Platforms without an entry
// (threads, openai, anything future) contribute nothing: forward-compatible
// no-op, not an error.
var extractors = map[model.Platform]extractor{
	model.PlatformLinkedIn:  extractLinkedIn,
	model.PlatformFacebook:  extractFacebook,
	model.PlatformInstagram: extractInstagram,
	model.PlatformYouTube:   extractYouTube,
	model.PlatformTwitter:   extractTwitter,
}

// Normalize derives PlatformAccount entries from a single integration's
// decrypted (or plain) credential document. Empty or absent metadata yields
// an empty list.
func Normalize(platform model.Platform, doc map[string]any) []model.PlatformAccount {
	ex, ok := extractors[platform]
	if !ok || len(doc) == 0 {
		return nil
	}
	out := ex(doc)
	for i := range out {
		out[i].Platform = platform
	}
	return out
}

// NormalizeAll flattens the account lists of several documents, keyed by
// platform, preserving input order.
func NormalizeAll(docs []struct {
	Platform model.Platform
	Doc      map[string]any
}) []model.PlatformAccount {
	var out []model.PlatformAccount
	for _, d := range docs {
		out = append(out, Normalize(d.Platform, d.Doc)...)
	}
	return out
}

func extractLinkedIn(doc map[string]any) []model.PlatformAccount {
	var out []model.PlatformAccount
	if pi, ok := doc["personal_info"].(map[string]any); ok {
		out = append(out, model.PlatformAccount{
			ID:     str(pi["id"]),
			Name:   str(pi["name"]),
			Avatar: str(pi["avatar"]),
			Type:   model.AccountPersonal,
		})
	}
	for _, v := range arr(doc["organizations"]) {
		org, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.PlatformAccount{
			ID:     str(org["id"]),
			Name:   str(org["name"]),
			Avatar: str(org["avatar"]),
			Type:   model.AccountCompany,
		})
	}
	return out
}

func extractFacebook(doc map[string]any) []model.PlatformAccount {
	var out []model.PlatformAccount
	for _, v := range arr(doc["pages"]) {
		page, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.PlatformAccount{
			ID:     str(page["id"]),
			Name:   str(page["name"]),
			Avatar: str(page["avatar"]),
			Type:   model.AccountPage,
		})
	}
	return out
}

func extractInstagram(doc map[string]any) []model.PlatformAccount {
	var out []model.PlatformAccount
	for _, v := range arr(doc["business_accounts"]) {
		acc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name := str(acc["username"])
		if name != "" {
			name = "@" + name
		}
		out = append(out, model.PlatformAccount{
			ID:     str(acc["id"]),
			Name:   name,
			Avatar: str(acc["avatar"]),
			Type:   model.AccountPersonal,
		})
	}
	return out
}

func extractYouTube(doc map[string]any) []model.PlatformAccount {
	var out []model.PlatformAccount
	for _, v := range arr(doc["channels"]) {
		ch, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.PlatformAccount{
			ID:     str(ch["id"]),
			Name:   str(ch["title"]),
			Avatar: str(ch["thumbnail"]),
			Type:   model.AccountChannel,
		})
	}
	return out
}

func extractTwitter(doc map[string]any) []model.PlatformAccount {
	user, ok := doc["user"].(map[string]any)
	if !ok {
		return nil
	}
	name := str(user["name"])
	if name == "" {
		name = str(user["username"])
	}
	return []model.PlatformAccount{{
		ID:     str(user["id"]),
		Name:   name,
		Avatar: str(user["avatar"]),
		Type:   model.AccountPersonal,
	}}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func arr(v any) []any {
	a, _ := v.([]any)
	return a
}
