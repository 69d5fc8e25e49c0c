// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（アラビア語のユーザー向け文言）
	Category string // カテゴリ: auth, validation, registration, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAlreadyRegistered       = "ALREADY_REGISTERED"
	ErrCodeInvalidFounderName      = "INVALID_FOUNDER_NAME"
	ErrCodeInvalidPhone            = "INVALID_PHONE"
	ErrCodeMissingProjectFields    = "MISSING_PROJECT_FIELDS"
	ErrCodeInvalidPartnerName      = "INVALID_PARTNER_NAME"
	ErrCodeInvalidJobTitle         = "INVALID_JOB_TITLE"
	ErrCodeDuplicateJobTitle       = "DUPLICATE_JOB_TITLE"
	ErrCodePartnerTitlesExhausted  = "PARTNER_TITLES_EXHAUSTED"
	ErrCodeProjectNameTaken        = "PROJECT_NAME_TAKEN"
	ErrCodeInvalidVerificationCode = "INVALID_VERIFICATION_CODE"
	ErrCodeSessionNotFound         = "SESSION_NOT_FOUND"
	ErrCodeNotVerified             = "NOT_VERIFIED"
	ErrCodeRecordNotFound          = "RECORD_NOT_FOUND"
	ErrCodeInvalidAdminCode        = "INVALID_ADMIN_CODE"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeInvalidSortKey          = "INVALID_SORT_KEY"
	ErrCodeImageExportUnavailable  = "IMAGE_EXPORT_UNAVAILABLE"
)

// NewAlreadyRegisteredError は電話番号の重複登録エラーを生成する。
func NewAlreadyRegisteredError(phone string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "رقم الهاتف هذا مسجل مسبقًا.",
		Category: "registration",
		Action:   "استخدم رقم هاتف آخر أو راجع الإدارة.",
	}
}

// NewInvalidFounderNameError は創業者氏名の書式エラーを生成する。
func NewInvalidFounderNameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFounderName,
		Message:  "يرجى إدخال الإسم الكامل من ثلاثة مقاطع.",
		Category: "validation",
		Action:   "أدخل الاسم الثلاثي الكامل.",
	}
}

// NewInvalidPhoneError は電話番号の書式エラーを生成する。
func NewInvalidPhoneError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhone,
		Message:  "يرجى إدخال رقم هاتف صحيح.",
		Category: "validation",
		Action:   "أدخل رقمًا مكونًا من 10 إلى 14 خانة.",
	}
}

// NewMissingProjectFieldsError はプロジェクト名・目的の未入力エラーを生成する。
func NewMissingProjectFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingProjectFields,
		Message:  "يرجى تعبئة اسم المشروع والغاية منه.",
		Category: "validation",
		Action:   "أكمل جميع الحقول المطلوبة.",
	}
}

// NewInvalidPartnerNameError はパートナー氏名の書式エラーを生成する。
func NewInvalidPartnerNameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPartnerName,
		Message:  "يرجى التأكد من إدخال الأسماء الثلاثية لجميع الشركاء.",
		Category: "validation",
		Action:   "أدخل الاسم الثلاثي لكل شريك.",
	}
}

// NewInvalidJobTitleError は未定義の役職エラーを生成する。
func NewInvalidJobTitleError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidJobTitle,
		Message:  fmt.Sprintf("المسمى الوظيفي غير صالح: %s", title),
		Category: "validation",
		Action:   "اختر مسمى وظيفيًا من القائمة.",
	}
}

// NewDuplicateJobTitleError は役職の重複エラーを生成する。
func NewDuplicateJobTitleError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateJobTitle,
		Message:  fmt.Sprintf("المسمى الوظيفي مستخدم لأكثر من شريك: %s", title),
		Category: "validation",
		Action:   "عيّن مسمى وظيفيًا مختلفًا لكل شريك.",
	}
}

// NewPartnerTitlesExhaustedError はパートナー数上限エラーを生成する。
func NewPartnerTitlesExhaustedError() *APIError {
	return &APIError{
		Code:     ErrCodePartnerTitlesExhausted,
		Message:  "لا يمكن إضافة المزيد من الشركاء، جميع المسميات الوظيفية مستخدمة.",
		Category: "validation",
		Action:   "احذف شريكًا قبل إضافة شريك جديد.",
	}
}

// NewProjectNameTakenError はプロジェクト名の重複エラーを生成する。
func NewProjectNameTakenError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNameTaken,
		Message:  "هذا الاسم مستخدم بالفعل. الرجاء اختيار اسم آخر.",
		Category: "validation",
		Action:   "اختر اسم مشروع آخر.",
	}
}

// NewInvalidVerificationCodeError は確認コードの不一致エラーを生成する。
func NewInvalidVerificationCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidVerificationCode,
		Message:  "الرمز الذي أدخلته غير صحيح. يرجى المحاولة مرة أخرى.",
		Category: "validation",
		Action:   "تحقق من الرمز المعروض وأعد المحاولة.",
	}
}

// NewSessionNotFoundError はウィザードセッション未検出エラーを生成する。
// セッションの期限切れもこのエラーに含まれる。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "انتهت صلاحية الجلسة. يرجى البدء من جديد.",
		Category: "registration",
		Action:   "ابدأ عملية التسجيل من البداية.",
	}
}

// NewNotVerifiedError は電話認証未完了エラーを生成する。
func NewNotVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotVerified,
		Message:  "لم يتم التحقق من رقم الهاتف بعد.",
		Category: "registration",
		Action:   "أدخل رمز التحقق أولًا.",
	}
}

// NewRecordNotFoundError は登録レコード未検出エラーを生成する。
func NewRecordNotFoundError(phone string) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("لا يوجد سجل لرقم الهاتف: %s", phone),
		Category: "registration",
		Action:   "تحقق من رقم الهاتف.",
	}
}

// NewInvalidAdminCodeError は管理コードの不一致エラーを生成する。
// 他の失敗種別と区別しない汎用メッセージを返す（意図的）。
func NewInvalidAdminCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAdminCode,
		Message:  "رمز الدخول غير صحيح.",
		Category: "auth",
		Action:   "تحقق من رمز دخول الإدارة.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "يجب تسجيل الدخول كمسؤول.",
		Category: "auth",
		Action:   "سجّل الدخول بإستخدام رمز الإدارة.",
	}
}

// NewInvalidSortKeyError は無効なソートキーエラーを生成する。
func NewInvalidSortKeyError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSortKey,
		Message:  fmt.Sprintf("مفتاح فرز غير صالح: %s", key),
		Category: "validation",
		Action:   "استخدم date أو projectName أو founderName.",
	}
}

// NewImageExportUnavailableError は証明書画像出力が無効な環境でのエラーを生成する。
func NewImageExportUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeImageExportUnavailable,
		Message:  "تصدير صورة الشهادة غير متاح حاليًا.",
		Category: "system",
		Action:   "استخدم عرض الشهادة أو الطباعة من المتصفح.",
	}
}
