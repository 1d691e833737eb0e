package engine

import "strings"

// stopWords are filler words and internet slang never reported as hot words.
var stopWords = toSet(
	"的", "了", "是", "在", "我", "有", "和", "就", "不", "人", "都", "一", "一个",
	"上", "也", "很", "到", "说", "要", "去", "你", "会", "着", "没有", "看", "好",
	"自己", "这", "那", "里", "为", "什么", "吗", "个", "能", "么", "做", "被",
	"与", "及", "等", "但", "还", "可以", "这个", "那个", "没", "来", "让", "给",
	"把", "从", "最", "更", "真的", "觉得", "真", "太", "啊", "呢", "吧", "嘛",
	"呀", "哦", "哈", "哈哈", "嗯", "哇", "真的是", "太太太", "超级", "非常",
	"特别", "超", "巨", "绝绝子", "家人们", "姐妹们", "宝子们", "集美们",
)

// ngramSizes are emitted longest first for every ideograph run.
var ngramSizes = []int{4, 3, 2}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func isIdeograph(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Tokenize extracts candidate words from text: every 4, 3 and 2 character
// window of each run of Chinese ideographs that is not a stop word, followed
// by every ASCII word of two or more letters, lower-cased. Duplicates are
// kept since frequency matters to callers.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var words []string
	for _, run := range strings.FieldsFunc(text, func(r rune) bool { return !isIdeograph(r) }) {
		chars := []rune(run)
		for _, size := range ngramSizes {
			for i := 0; i+size <= len(chars); i++ {
				w := string(chars[i : i+size])
				if !stopWords[w] {
					words = append(words, w)
				}
			}
		}
	}

	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !isASCIILetter(r) }) {
		if len(w) >= 2 {
			words = append(words, strings.ToLower(w))
		}
	}
	return words
}

// postText is the text a post is tokenized and matched against.
func postText(title, content string) string {
	return title + " " + content
}
