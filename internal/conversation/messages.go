package conversation

import (
	"fmt"
	"strings"
)

// User-facing dialogue text. Kept in one place so prompts and their
// reprompts stay in sync.
const (
	msgAskSeats               = "座席数を教えてください。例: 1人席:3、2人席:2、4人席:1"
	msgAskStoreAgain          = "もう一度店舗名を送ってください。"
	msgAskSeatsAgain          = "もう一度座席数を入力してください。"
	msgAskTemplateImage       = "予約表（記入前）の写真を送ってください。"
	msgResendTemplate         = "修正後の予約表の写真を再送してください。"
	msgAskFilledImage         = "記入済みの予約表の写真を送ってください。"
	msgTemplateAnalysisFailed = "画像をうまく解析できませんでした。もう一度鮮明な写真を送ってください。"
	msgFilledAnalysisFailed   = "予約内容を読み取れませんでした。もう一度鮮明な写真を送ってください。"
	msgSheetCreateFailed      = "シートの作成に失敗しました。もう一度「はい」と送ってください。"
	msgSheetWriteFailed       = "シートへの書き込みに失敗しました。もう一度写真を送ってください。"
	msgDone                   = "✅ 予約表のデータ取得を完了しました！"
	msgDoneGuide              = "📷 以後は記入済みの予約表の写真を送ると、シートに反映されます。変更・キャンセルも同様にどうぞ。"
	msgDoneInfo               = "記入済みの予約表の写真を送ると、シートに反映されます。"
	msgGenericError           = "エラーが発生しました。もう一度お試しください。"
)

func confirmStorePrompt(sess *Session) string {
	return fmt.Sprintf("店舗名: %s\n店舗ID: %d\nこの内容でよろしいですか？（はい/いいえ）", sess.StoreName, sess.StoreID)
}

func confirmSeatsPrompt(sess *Session) string {
	return fmt.Sprintf("座席情報:\n%s\nこれでよろしいですか？（はい/いいえ）", sess.SeatInfo)
}

func confirmTimesPrompt(sess *Session) string {
	return fmt.Sprintf("予約表から以下の時間帯を読み取りました:\n%s\nこの内容でシートを作成してよろしいですか？（はい/いいえ）",
		strings.Join(sess.TimeSlots, "\n"))
}

func storeRegisteredPrompt(sess *Session) string {
	return fmt.Sprintf("店舗登録完了！\n予約表シート: %s\n記入済みの予約表の写真を送ってください。", sess.SheetURL)
}
