package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func analyzePrompt(content string, categories []string, shortTitleMax int) string {
	hint, _ := json.Marshal(categories)
	return fmt.Sprintf(
		"Analyze the note and respond in JSON with keys: "+
			"short_title, title, category, tags, summary, entities, sensitivity. "+
			"Category must be one of %s. "+
			"short_title must be <= %d characters.\n\nNote:\n%s\n",
		hint, shortTitleMax, content,
	)
}

func searchPrompt(query string, now time.Time) string {
	return "You extract search intent and time range for a personal notes app. " +
		"Return ONLY valid JSON with keys: semantic_query, keywords, time_start, time_end. " +
		"semantic_query should remove time expressions and keep the core intent. " +
		"keywords should include important entities, synonyms, and related terms in the user's language. " +
		"time_start and time_end should be ISO dates (YYYY-MM-DD) or null. " +
		"If there is a relative time phrase (like last month, yesterday), convert it using today's date. " +
		"Today is " + now.Format(time.DateOnly) + ". " +
		"Query: " + query
}

func summarizePrompt(joined string, days int) string {
	return fmt.Sprintf("Summarize these notes from the last %d days in 5 bullet points.\n\n%s", days, joined)
}

func answerPrompt(question string, notes []string) string {
	var b strings.Builder
	b.WriteString("Answer the question using the notes.\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nNotes:\n")
	for _, n := range notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

func taxonomyPrompt(clustersJSON string) string {
	return "You are an expert knowledge organizer. I have grouped a user's notes into small 'micro-clusters' based on similarity. " +
		"Your task is to organize these micro-clusters into a clean, logical directory structure (Category -> Folder Paths). " +
		"Rules:\n" +
		"1. Create 5-10 top-level Categories (e.g., 'Work', 'Personal', 'Tech', 'Learning').\n" +
		"2. Inside each Category, create Folder paths that group related micro-clusters. Folder paths can be multi-level, using '/' " +
		"as the path separator (no spaces around '/'). Example: 'Ops | 运维/Monitoring | 监控'.\n" +
		"3. Assign EVERY micro-cluster_id to exactly one Folder path.\n" +
		"4. Use bilingual names for Categories and every Folder level in the format 'English | 中文'. Do NOT use '/' inside bilingual " +
		"names; reserve '/' only for folder path separators.\n" +
		"5. Return ONLY valid JSON matching this schema:\n" +
		"{\n" +
		"  \"categories\": [\n" +
		"    {\n" +
		"      \"name\": \"Category Name | 分类名称\",\n" +
		"      \"folders\": [\n" +
		"        {\n" +
		"          \"name\": \"Folder Path (e.g. Ops | 运维/Monitoring | 监控)\",\n" +
		"          \"cluster_ids\": [1, 5, 12]\n" +
		"        }\n" +
		"      ]\n" +
		"    }\n" +
		"  ]\n" +
		"}\n\n" +
		"Micro-clusters:\n" + clustersJSON
}
