package mcpserver

// LogFormatContract describes the learning-log schema and the fixed
// Japanese enum values that LLM consumers must use when creating logs
// or reflections.
const LogFormatContract = `# Manabi Learning Log Contract

Every learning log is a structured JSON record. Tools accept plain string
arguments, but enum fields only accept the fixed Japanese values below.
Any other value is rejected.

## Categories (category)

- プログラミング (programming)
- デザイン (design)
- ビジネス (business)
- 語学 (language learning)
- クリエイティブ (creative)
- その他 (other)

## Skill levels (level)

- 初級 (beginner, the default when omitted)
- 中級 (intermediate)
- 上級 (advanced)
- エキスパート (expert)

## Reflection types (type)

- 学んだこと (what was learned)
- 課題 (challenge)
- 次のステップ (next step)
- 気づき (insight)

## Record shape

` + "```" + `json
{
  "id": "a2f1…",               // UUID, server-assigned, immutable
  "title": "Go の並行処理",
  "description": "channel と select を練習した",
  "category": "プログラミング",
  "created_at": "2025-01-20T09:00:00Z",  // immutable
  "updated_at": "2025-01-21T10:30:00Z",
  "skills": [ { "id": "…", "name": "Go", "level": "中級" } ],
  "reflections": [ { "id": "…", "content": "…", "type": "学んだこと", "created_at": "…" } ],
  "is_public": false
}
` + "```" + `

## Rules

1. Titles and descriptions are free text in any language.
2. ` + "`" + `id` + "`" + ` and ` + "`" + `created_at` + "`" + ` are server-assigned; never send them.
3. Skills and reflections keep their insertion order.
4. Only logs with ` + "`" + `is_public: true` + "`" + ` appear in the portfolio's public list.
`
