package translation

import "github.com/heartmarshall/sentence-lab/internal/provider"

// systemPrompt asks for the three labelled sections the extractor looks for.
// The labels must stay in sync with extractor.DefaultMarkers.
const systemPrompt = "你是一个帮助用户进行中日翻译的助手。当用户输入中文时，" +
	"请将其翻译为日语，并提供以下格式的输出：\n" +
	"1. 翻译结果: [翻译后的日语句子]\n" +
	"2. 平假名注释: [日语句子的平假名形式]\n" +
	"3. 语法解析: [简单的语法分析和关键点]\n" +
	"当用户输入日语时，请提供句子的平假名注释、语法解析，" +
	"并翻译为中文，保持同样的格式输出。"

// BuildMessages returns the chat prompt for one sentence.
func BuildMessages(sentence string) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: sentence},
	}
}
