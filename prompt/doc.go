// Package prompt implements chat prompt templating: building an ordered
// message sequence from a heterogeneous template specification and a set of
// variables.
//
// A ChatTemplate is composed of template nodes. Each node is one of:
//
//   - Fixed: an already-resolved message, returned unchanged.
//   - RoleTemplate: a role plus a content template (plain string or
//     multi-part block list) with placeholders to substitute.
//   - Placeholder: expands to a caller-supplied run of existing messages.
//
// Templates are built from a small specification DSL:
//
//	tmpl, err := prompt.FromMessages([]any{
//	    prompt.Pair("system", "You are {name}."),
//	    prompt.Pair("placeholder", "{history}"),
//	    prompt.Pair("human", "{input}"),
//	})
//	msgs, err := tmpl.FormatMessages(map[string]any{
//	    "name":  "Bob",
//	    "input": "hi",
//	})
//
// Two placeholder syntaxes are supported: f-string style ("{name}", the
// default) and mustache style ("{{name}}"). Content templates may mix text
// and image blocks; image blocks given as a URL, inline data URI, or local
// file path are all canonicalized to one shape at format time.
//
// Required and optional variable sets are inferred from the nodes and kept
// disjoint across mutations. Partial freezes some bindings into a new
// template; Append and Extend grow the node sequence in place.
//
// Formatting is all-or-nothing and performs no retries: the first missing
// variable, malformed role, unreadable image file, or unsupported block
// aborts the call.
package prompt
