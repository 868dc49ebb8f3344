package main

// currentGameSessionKey remembers the game the browser is playing.
const currentGameSessionKey = "currentGameID"
