package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "too_small":
			return "小さすぎます"
		case "too_big":
			return "大きすぎます"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "pattern":
			return "パターンに一致しません"
		case "invalid_enum":
			return "許可されていない値です"
		case "invalid_format":
			return "形式が不正です"
		case "union_no_match":
			return "どのバリアントにも一致しません"
		case "model_rule":
			return "モデル検証に失敗しました"
		case "computed_failed":
			return "計算フィールドの評価に失敗しました"
		case "computed_invalid_type":
			return "計算フィールドの型が不正です"
		case "schema_config":
			return "スキーマ設定が不正です"
		case "parse_error":
			return "解析エラー"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "too_small":
			return "too small"
		case "too_big":
			return "too big"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "pattern":
			return "value does not match pattern"
		case "invalid_enum":
			return "value is not one of the allowed choices"
		case "invalid_format":
			return "invalid format"
		case "union_no_match":
			return "no union variant matched"
		case "model_rule":
			return "model validation failed"
		case "computed_failed":
			return "computed field failed"
		case "computed_invalid_type":
			return "computed field has invalid type"
		case "schema_config":
			return "invalid schema configuration"
		case "parse_error":
			return "parse error"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T resolves a message for the code through the current Translator.
func T(code string, data map[string]string) string {
	return currentTranslator.Message(code, data)
}
