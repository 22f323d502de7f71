package prompts

import (
	_ "embed"
)

// ArticleRewrite takes, in order: article title, truncated original body,
// rendered reference blocks, number of references.
//
//go:embed article_rewrite.txt
var ArticleRewrite string

// ReferenceBlock takes: reference number, reference title, truncated body.
//
//go:embed reference_block.txt
var ReferenceBlock string
