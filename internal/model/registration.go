// Package model はドメインモデルを定義する。
package model

import (
	"regexp"
	"strings"
	"time"
)

// JobTitle はパートナーの役職を表す。閉じた集合で、1つのProjectData内で重複不可。
type JobTitle string

const (
	TitleCEO JobTitle = "CEO"
	TitleCFO JobTitle = "CFO"
	TitleCOO JobTitle = "COO"
	TitleCMO JobTitle = "CMO"
	TitleCPO JobTitle = "CPO"
	TitleCXO JobTitle = "CXO"
)

// JobTitles は割り当て可能な役職の一覧。パートナー数の上限はこの長さに等しい。
var JobTitles = []JobTitle{TitleCEO, TitleCFO, TitleCOO, TitleCMO, TitleCPO, TitleCXO}

// IsValidJobTitle はtitleが定義済みの役職かどうかを返す。
func IsValidJobTitle(title JobTitle) bool {
	for _, t := range JobTitles {
		if t == title {
			return true
		}
	}
	return false
}

// phonePattern は電話番号の書式。先頭の+は任意、数字10〜14桁。
var phonePattern = regexp.MustCompile(`^\+?\d{10,14}$`)

// User は登録者（創業者）を表す。セッション確定後はイミュータブルとして扱う。
type User struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Validate は氏名と電話番号の書式を検証する。
// 氏名は空白区切りで3語以上（三段階のフルネーム）、電話番号はphonePatternに一致すること。
func (u User) Validate() *APIError {
	if CountNameTokens(u.Name) < 3 {
		return NewInvalidFounderNameError()
	}
	if !phonePattern.MatchString(strings.TrimSpace(u.Phone)) {
		return NewInvalidPhoneError()
	}
	return nil
}

// CountNameTokens は氏名の空白区切りトークン数を返す。
func CountNameTokens(name string) int {
	return len(strings.Fields(name))
}

// Partner は共同創業者を表す。IDはサーバー側で採番される不透明な識別子。
type Partner struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Title JobTitle `json:"title"`
}

// ProjectData は登録対象のプロジェクト情報を表す。
type ProjectData struct {
	ProjectName string    `json:"projectName"`
	ProjectGoal string    `json:"projectGoal"`
	Partners    []Partner `json:"partners"`
}

// Validate はプロジェクト情報を検証する。
// 名称・目的の非空、パートナー数の上限、パートナー氏名の3語以上、
// 役職の有効性と重複なしを確認する。
func (p ProjectData) Validate() *APIError {
	if strings.TrimSpace(p.ProjectName) == "" || strings.TrimSpace(p.ProjectGoal) == "" {
		return NewMissingProjectFieldsError()
	}
	if len(p.Partners) > len(JobTitles) {
		return NewPartnerTitlesExhaustedError()
	}

	seen := make(map[JobTitle]bool, len(p.Partners))
	for _, partner := range p.Partners {
		if CountNameTokens(partner.Name) < 3 {
			return NewInvalidPartnerNameError()
		}
		if !IsValidJobTitle(partner.Title) {
			return NewInvalidJobTitleError(string(partner.Title))
		}
		if seen[partner.Title] {
			return NewDuplicateJobTitleError(string(partner.Title))
		}
		seen[partner.Title] = true
	}
	return nil
}

// RegistrationRecord は発行済みの仮想商業登録1件を表す。
// RegistrationDateは作成時に採番され、以後変更されない。
type RegistrationRecord struct {
	User             User        `json:"user"`
	ProjectData      ProjectData `json:"projectData"`
	RegistrationDate time.Time   `json:"registrationDate"`
}
