package flow

import "fmt"

// Fixed message set shown in the conversation
const (
	msgGreeting     = "안녕하세요! 동물 사진을 보내주시면 어떤 동물인지 알려드릴게요."
	msgPicker       = "분석할 이미지를 선택하거나 끌어다 놓아 주세요."
	msgReady        = "분석하기 버튼을 눌러주세요."
	msgSelectImage  = "이미지를 선택해 주세요."
	msgStartNew     = "새 이미지를 분석하려면 '다른 이미지 분석하기'를 눌러주세요."
	msgAnalyzing    = "이미지를 분석하고 있어요..."
	msgNoMatch      = "죄송해요, 어떤 동물인지 확실하게 알아보지 못했어요. 다른 사진으로 다시 시도해 주세요."
	msgFailed       = "이미지 분석 중 오류가 발생했습니다."
	msgDecodeFailed = "이미지를 읽을 수 없습니다."
	msgAction       = "다른 이미지 분석하기"
	msgInFlight     = "분석이 진행 중이에요. 잠시만 기다려 주세요."
)

func resolvedMessage(label string) string {
	return fmt.Sprintf("%s 사진이네요!", label)
}

func failedMessage(detail string) string {
	if detail == "" {
		return msgFailed
	}
	return fmt.Sprintf("%s (%s)", msgFailed, detail)
}

func notification(outcome Outcome, label string) string {
	switch outcome {
	case OutcomeResolved:
		return resolvedMessage(label)
	case OutcomeNoMatch:
		return "동물을 알아보지 못했어요"
	default:
		return msgFailed
	}
}
