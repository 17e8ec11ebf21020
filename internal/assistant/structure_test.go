package assistant

import "testing"

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    CodeKind
		want    string
	}{
		{
			"sql fence",
			"Here:\n```sql\nSELECT 1\n```\ndone",
			CodeSQL,
			"SELECT 1",
		},
		{
			"uppercase sql tag",
			"```SQL\nSELECT 2\n```",
			CodeSQL,
			"SELECT 2",
		},
		{
			"python fence",
			"```python\nimport processing\n```",
			CodePython,
			"import processing",
		},
		{
			"py tag",
			"```py\ndef run():\n    pass\n```",
			CodePython,
			"def run():\n    pass",
		},
		{
			"untagged fence sniffed as sql",
			"```\nSELECT * FROM roads\n```",
			CodeSQL,
			"SELECT * FROM roads",
		},
		{
			"untagged fence sniffed as python",
			"```\nimport os\n```",
			CodePython,
			"import os",
		},
		{
			"bare text that looks like sql",
			"SELECT name FROM parks WHERE area > 100",
			CodeSQL,
			"SELECT name FROM parks WHERE area > 100",
		},
		{
			"prose only",
			"I cannot determine the workflow from this image.",
			CodeSQL,
			"",
		},
		{
			"empty",
			"",
			CodePython,
			"",
		},
		{
			"sql fence ignored for python",
			"```sql\nSELECT 1\n```",
			CodePython,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.content, tt.kind); got != tt.want {
				t.Errorf("ExtractCode(%q, %s) = %q, want %q", tt.content, tt.kind, got, tt.want)
			}
		})
	}
}
