package uow

import "errors"

// Ошибки реестра репозиториев. Возвращаются из Register/GetRepository/Get и их
// типизированных обёрток GetRepositoryAs/GetAs.
var (
	ErrRepositoryNotRegistered     = errors.New("[uow] repository is not registered")
	ErrRepositoryAlreadyRegistered = errors.New("[uow] repository is already registered")
	ErrInvalidRepositoryType       = errors.New("[uow] repository type assertion failed")
)
