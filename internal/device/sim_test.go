package device

import (
	"errors"
	"testing"
)

func TestSimDevice_PowerLevel(t *testing.T) {
	d := NewSimDevice("pv1", TypeDRER, 3.5)

	got, err := d.PowerLevel()
	if err != nil {
		t.Fatalf("PowerLevel() error = %v", err)
	}
	if got != 3.5 {
		t.Errorf("PowerLevel() = %v, want 3.5", got)
	}

	d.SetPower(-1.25)
	got, err = d.PowerLevel()
	if err != nil {
		t.Fatalf("PowerLevel() error = %v", err)
	}
	if got != -1.25 {
		t.Errorf("PowerLevel() = %v, want -1.25", got)
	}
}

func TestSimDevice_BreakerInversion(t *testing.T) {
	d := NewSimDevice("grid3", TypeGrid, 0)

	// Devices start with the breaker closed (no flow).
	if d.IsOn() {
		t.Fatal("new device reports power flowing")
	}

	if err := d.TurnOn(); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	// The simulator setting is inverted: on means the raw switch reads 0.
	if d.GetSetting(SettingOnOffSwitch) != 0 {
		t.Errorf("onOffSwitch = %v after TurnOn, want 0", d.GetSetting(SettingOnOffSwitch))
	}
	if !d.IsOn() {
		t.Error("IsOn() = false after TurnOn")
	}

	if err := d.TurnOff(); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if d.GetSetting(SettingOnOffSwitch) != 1 {
		t.Errorf("onOffSwitch = %v after TurnOff, want 1", d.GetSetting(SettingOnOffSwitch))
	}
	if d.IsOn() {
		t.Error("IsOn() = true after TurnOff")
	}
}

func TestSimDevice_FailedReads(t *testing.T) {
	d := NewSimDevice("pv1", TypeDRER, 2)
	d.SetFailed(true)

	if _, err := d.PowerLevel(); !errors.Is(err, ErrReadFailed) {
		t.Errorf("PowerLevel() error = %v, want ErrReadFailed", err)
	}
	if err := d.TurnOn(); !errors.Is(err, ErrReadFailed) {
		t.Errorf("TurnOn() error = %v, want ErrReadFailed", err)
	}

	d.SetFailed(false)
	if _, err := d.PowerLevel(); err != nil {
		t.Errorf("PowerLevel() after recovery error = %v", err)
	}
}

func TestSimDevice_TryLock(t *testing.T) {
	d := NewSimDevice("grid3", TypeGrid, 0)

	if !d.TryLock() {
		t.Fatal("TryLock() failed on unlocked device")
	}
	if d.TryLock() {
		t.Error("TryLock() succeeded while lock held")
	}
	d.Unlock()
	if !d.TryLock() {
		t.Error("TryLock() failed after Unlock")
	}
	d.Unlock()
}
