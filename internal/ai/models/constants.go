package models

const (
	// === Gemini Models ===
	ModelGemini1_5Flash = "gemini-1.5-flash"

	// === Groq Models ===
	ModelGroqLlama3_3_70b = "llama-3.3-70b-versatile"

	// === Cerebras Models ===
	ModelCerebrasGptOss120b = "gpt-oss-120b"
)

const (
	// === Task-Specific Default Models ===

	// TaskArticleRewriteModel: long-form rewrite, default for Gemini.
	TaskArticleRewriteModel = ModelGemini1_5Flash

	TaskArticleRewriteGroqModel     = ModelGroqLlama3_3_70b
	TaskArticleRewriteCerebrasModel = ModelCerebrasGptOss120b
)
