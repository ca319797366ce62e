package game

// respawnTicket is a pending respawn. It stays with the dead player record
// and is canceled when the player disconnects.
type respawnTicket struct {
	playerID string
	victim   *Player
	due      uint64
	canceled bool
}

// Cancel stops the ticket from firing
func (t *respawnTicket) Cancel() {
	if t != nil {
		t.canceled = true
	}
}

func (w *World) scheduleRespawn(p *Player) {
	t := &respawnTicket{
		playerID: p.ID,
		victim:   p,
		due:      w.tick + w.cfg.RespawnTicks(),
	}
	p.respawn = t
	w.respawns = append(w.respawns, t)
}

// fireRespawns replaces every dead player whose ticket is due. A ticket
// whose player left or was already replaced is dropped.
func (w *World) fireRespawns() {
	kept := w.respawns[:0]
	for _, t := range w.respawns {
		if t.canceled {
			continue
		}
		if t.due > w.tick {
			kept = append(kept, t)
			continue
		}
		cur, ok := w.players[t.playerID]
		if !ok || cur != t.victim {
			continue
		}
		fresh := NewPlayer(cur.ID, cur.Name, cur.Color, cur.JoinSeq, w.cfg, w.rng)
		fresh.LastInput = w.now
		w.players[cur.ID] = fresh
		delete(w.pending, cur.ID)
		w.emit(Event{Kind: EventRespawn, PlayerID: fresh.ID, Name: fresh.Name, Player: fresh})
	}
	clear(w.respawns[len(kept):])
	w.respawns = kept
}
