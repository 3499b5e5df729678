package config

import (
	"sync"
	"testing"
)

func TestSetAndGetConfig(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	cfg := validTestConfig()
	SetConfig(cfg)

	if got := GetConfig(); got != cfg {
		t.Error("GetConfig() did not return the set instance")
	}
}

func TestMustGetConfigPanics(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic with nil configuration")
		}
	}()
	MustGetConfig()
}

func TestConfigConcurrentAccess(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetConfig(validTestConfig())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				GetConfig()
			}
		}()
	}
	wg.Wait()
}
