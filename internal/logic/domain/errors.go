package domain

import (
	"errors"
	"fmt"
)

// ProgramError 程序与运行时共用的错误类型，可比较，支持 errors.Is。
type ProgramError uint32

const (
	ErrInvalidArgument           ProgramError = 2
	ErrInvalidInstructionData    ProgramError = 3
	ErrInvalidAccountData        ProgramError = 4
	ErrAccountDataTooSmall       ProgramError = 5
	ErrInsufficientFunds         ProgramError = 6
	ErrIncorrectProgramId        ProgramError = 7
	ErrMissingRequiredSignature  ProgramError = 8
	ErrAccountAlreadyInitialized ProgramError = 9
	ErrUninitializedAccount      ProgramError = 10
	ErrNotEnoughAccountKeys      ProgramError = 11
	ErrArithmeticOverflow        ProgramError = 22

	// 运行时（宿主侧）错误
	ErrAccountAlreadyInUse   ProgramError = 100
	ErrOwnerMismatch         ProgramError = 101
	ErrUnknownProgram        ProgramError = 102
	ErrUnbalancedTransaction ProgramError = 103
	ErrReadonlyDataModified  ProgramError = 104
)

var programErrorNames = map[ProgramError]string{
	ErrInvalidArgument:           "InvalidArgument",
	ErrInvalidInstructionData:    "InvalidInstructionData",
	ErrInvalidAccountData:        "InvalidAccountData",
	ErrAccountDataTooSmall:       "AccountDataTooSmall",
	ErrInsufficientFunds:         "InsufficientFunds",
	ErrIncorrectProgramId:        "IncorrectProgramId",
	ErrMissingRequiredSignature:  "MissingRequiredSignature",
	ErrAccountAlreadyInitialized: "AccountAlreadyInitialized",
	ErrUninitializedAccount:      "UninitializedAccount",
	ErrNotEnoughAccountKeys:      "NotEnoughAccountKeys",
	ErrArithmeticOverflow:        "ArithmeticOverflow",
	ErrAccountAlreadyInUse:       "AccountAlreadyInUse",
	ErrOwnerMismatch:             "OwnerMismatch",
	ErrUnknownProgram:            "UnknownProgram",
	ErrUnbalancedTransaction:     "UnbalancedTransaction",
	ErrReadonlyDataModified:      "ReadonlyDataModified",
}

func (e ProgramError) Error() string {
	if name, ok := programErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ProgramError(%d)", uint32(e))
}

// Code 数值错误码
func (e ProgramError) Code() uint32 {
	return uint32(e)
}

// ProgramErrorOf 提取错误链中的 ProgramError
func ProgramErrorOf(err error) (ProgramError, bool) {
	var pe ProgramError
	if errors.As(err, &pe) {
		return pe, true
	}
	return 0, false
}
