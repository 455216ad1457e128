package analysis

import (
	"fmt"

	"github.com/isdmx/codeprobe/lang"
)

const promptTemplate = `Analyze this %s code and provide detailed feedback:

%s

Focus on:
1. Code Quality:
   - Identify bugs and potential issues
   - Point out style violations
   - Suggest readability improvements

2. Performance:
   - Identify bottlenecks
   - Suggest optimizations
   - Point out resource usage concerns

3. Security:
   - Identify vulnerabilities
   - Point out unsafe practices
   - Suggest security improvements

Format your response with clear sections and specific line references when applicable.`

// BuildPrompt returns the review prompt sent to the AI provider
func BuildPrompt(code, language string) string {
	return fmt.Sprintf(promptTemplate, lang.DisplayName(language), code)
}
